package logger

import (
	"github.com/sirupsen/logrus"
)

// Log — общий логгер сервиса. Остаётся nil до Init, поэтому ранний код
// и тесты проверяют его перед использованием.
var Log *logrus.Logger

// Init настраивает логгер. В production пишем JSON для сборщика логов,
// в development — текст с полной меткой времени. Неизвестный уровень
// молча понижается до info: сервис не должен падать из-за опечатки в
// LOG_LEVEL.
func Init(level string, development bool) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if development {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}
