package observability

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// GracefulShutdown blocks until SIGINT/SIGTERM, then drains the given
// servers within the timeout and runs any cleanup hooks.
func GracefulShutdown(logger *Logger, timeout time.Duration, servers []*http.Server, hooks ...func(context.Context) error) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	logger.WithField("signal", sig.String()).Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, server := range servers {
		if err := server.Shutdown(ctx); err != nil {
			logger.WithField("error", err.Error()).Warn("server shutdown error")
		}
	}

	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			logger.WithField("error", err.Error()).Warn("shutdown hook error")
		}
	}

	logger.Info("shutdown complete")
}
