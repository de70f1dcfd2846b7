package kit

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// RunHTTPServer serves h until SIGINT/SIGTERM or a listener error,
// then shuts down gracefully. onStop runs on every exit path, after
// in-flight requests have drained.
func RunHTTPServer(addr string, h http.Handler, log *zap.Logger, onStop func()) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if onStop != nil {
			onStop()
		}
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)
	if onStop != nil {
		onStop()
	}
	return err
}
