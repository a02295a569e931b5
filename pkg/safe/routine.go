package safe

import (
	"runtime"

	"go.uber.org/zap"
)

// Go runs fn on a new goroutine, logging panics instead of crashing the host.
func Go(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				zap.S().Errorf("goroutine panic: %v\n %s", err, buf[:n])
			}
		}()
		fn()
	}()
}
