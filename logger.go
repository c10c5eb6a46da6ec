package sessionmiddleware

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// NewLogrusLogger adapts a logrus.FieldLogger to the Logger interface. The
// key/value pairs become logrus fields. The result also satisfies
// core.Logger.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (a *logrusLoggerAdapter) Debug(msg string, args ...any) { a.entry(args).Debug(msg) }
func (a *logrusLoggerAdapter) Info(msg string, args ...any)  { a.entry(args).Info(msg) }
func (a *logrusLoggerAdapter) Warn(msg string, args ...any)  { a.entry(args).Warn(msg) }
func (a *logrusLoggerAdapter) Error(msg string, args ...any) { a.entry(args).Error(msg) }

func (a *logrusLoggerAdapter) entry(args []any) *logrus.Entry {
	return a.l.WithFields(fields(args))
}

// fields turns slog style alternating key/value args into logrus fields. A
// trailing key without a value is kept under "!BADKEY", as slog does.
func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	return f
}
