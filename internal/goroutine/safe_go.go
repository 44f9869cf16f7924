package goroutine

import (
	"log"
	"runtime/debug"

	"github.com/bobpay/bobpay-backend/internal/logger"
)

// SafeGo запускает фоновую задачу с перехватом panic. Фоновые задачи
// здесь сопровождают денежные операции (журнал активности, уведомления,
// регистрация сертификатов), поэтому упавшая горутина не должна ронять
// процесс: платёж уже зафиксирован в базе, а сбой задачи попадает в лог
// под её именем.
func SafeGo(task string, fn func()) {
	go func() {
		defer recoverTask(task)
		fn()
	}()
}

func recoverTask(task string) {
	r := recover()
	if r == nil {
		return
	}
	if logger.Log != nil {
		logger.Log.WithFields(map[string]interface{}{
			"task":  task,
			"panic": r,
		}).Errorf("goroutine: паника в фоновой задаче\n%s", debug.Stack())
		return
	}
	// Логгер ещё не инициализирован (ранний старт, тесты)
	log.Printf("goroutine: паника в фоновой задаче %s: %v\n%s", task, r, debug.Stack())
}
