package codegen

import (
	"sync"

	"go.uber.org/zap"
)

var (
	log     *zap.Logger
	logOnce sync.Once
)

// Logger returns the code generator's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	logOnce.Do(func() {
		if log == nil {
			log = zap.NewNop()
		}
	})
	return log
}

// SetLogger installs a logger; call before lowering starts.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logOnce.Do(func() {})
		log = l
	}
}

func logger() *zap.Logger { return Logger() }
