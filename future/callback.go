package future

import (
	"runtime/debug"

	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/utils"
)

// invokeCallback runs callback on its own goroutine. A panic inside it is
// recovered and logged with the callback kind so it never takes down the
// fulfilling goroutine.
func invokeCallback[T any](kind string, callback func(T), value T) {
	if callback == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				if err := utils.GetPanicRecoveryError(r, debug.Stack()); err != nil {
					logger.Get().Error("panic encountered in future."+kind+" callback", "error", err)
				}
			}
		}()

		callback(value)
	}()
}
