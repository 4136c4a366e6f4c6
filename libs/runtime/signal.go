package runtime

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context cancelled on the usual termination
// signals. Extra signals can be added for processes that also handle e.g.
// SIGHUP reloads.
func SignalContext(extra ...os.Signal) (context.Context, context.CancelFunc) {
	signals := append([]os.Signal{syscall.SIGINT, syscall.SIGTERM}, extra...)
	return signal.NotifyContext(context.Background(), signals...)
}
