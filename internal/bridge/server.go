package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultListen is the bridge address when none is configured.
const DefaultListen = "127.0.0.1:8787"

const shutdownTimeout = 5 * time.Second

// Serve runs the bridge on addr until ctx is done.
func Serve(ctx context.Context, addr string, dispatcher Dispatcher, logger *zap.Logger) error {
	if addr == "" {
		addr = DefaultListen
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	return serve(ctx, ln, dispatcher, logger)
}

func serve(ctx context.Context, ln net.Listener, dispatcher Dispatcher, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Handler:           NewRouter(&Handler{Dispatcher: dispatcher}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("bridge shutdown", zap.Error(err))
		}
	})
	defer stop()

	logger.Info("bridge listening", zap.String("addr", ln.Addr().String()))

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving bridge: %w", err)
	}

	return nil
}
