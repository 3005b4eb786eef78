package auth

import "go.uber.org/zap"

// ZapLogger adapts a zap.SugaredLogger to the Logger interface so hosts
// running zap can route auth logs through their own pipeline.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger wraps a zap logger. Passing nil builds a production
// logger internally.
func NewZapLogger(base *zap.Logger) *ZapLogger {
	if base == nil {
		base, _ = zap.NewProduction()
	}
	return &ZapLogger{sugar: base.Sugar()}
}

func (l *ZapLogger) Debug(format string, args ...any) {
	l.sugar.Debugw(format, args...)
}

func (l *ZapLogger) Info(format string, args ...any) {
	l.sugar.Infow(format, args...)
}

func (l *ZapLogger) Warn(format string, args ...any) {
	l.sugar.Warnw(format, args...)
}

func (l *ZapLogger) Error(format string, args ...any) {
	l.sugar.Errorw(format, args...)
}
