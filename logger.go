package espacemembre

import (
	"github.com/goliatone/go-auth-espace-membre/client"
	"go.uber.org/zap"
)

// Logger is the structured logger used by the wrappers and the client.
type Logger = client.Logger

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger. A nil logger yields a no-op Logger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return client.NopLogger()
	}
	return zapLogger{sugar: l.Sugar()}
}

func (z zapLogger) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }
func (z zapLogger) Info(msg string, args ...any)  { z.sugar.Infow(msg, args...) }
func (z zapLogger) Warn(msg string, args ...any)  { z.sugar.Warnw(msg, args...) }
func (z zapLogger) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

func resolveLogger(l Logger) Logger {
	if l == nil {
		return client.NopLogger()
	}
	return l
}
