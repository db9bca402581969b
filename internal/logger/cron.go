package logger

import "github.com/robfig/cron/v3"

type cronLogger struct{}

// Cron adapts the global logger to cron's logging interface.
func Cron() cron.Logger { return cronLogger{} }

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	Get().Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	Get().Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
