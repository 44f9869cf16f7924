package goroutine

import (
	"testing"
	"time"
)

func TestSafeGo_SurvivesPanic(t *testing.T) {
	done := make(chan struct{})
	SafeGo("panics", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("горутина с паникой не завершилась")
	}

	// Паника перехвачена, процесс жив: следующая задача выполняется
	ran := make(chan struct{})
	SafeGo("after_panic", func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("задача после паники не выполнилась")
	}
}
