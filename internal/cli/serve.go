package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/history/pkg/adapters/http"
	"github.com/aretw0/history/pkg/adapters/mcp"
)

// ShutdownTimeout bounds graceful shutdown of the servers.
const ShutdownTimeout = 5 * time.Second

// Serve runs the HTTP session API on addr until ctx is cancelled.
func Serve(ctx context.Context, stack *Stack, addr string) error {
	if addr == "" {
		addr = stack.Config.HTTP.Addr
	}

	handler := httpAdapter.NewHandler(stack.Sessions(),
		httpAdapter.WithLogger(stack.Logger),
		httpAdapter.WithMetrics(stack.Registry),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		stack.Logger.Info("HTTP server listening", "address", addr, "backend", stack.Config.Store.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		stack.Logger.Info("shutting down HTTP server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", ShutdownTimeout, err)
		}
		return nil
	}
}

// ServeMCP runs the MCP server over stdio, or over SSE when port is positive.
func ServeMCP(ctx context.Context, stack *Stack, port int) error {
	srv := mcp.NewServer(stack.Sessions(), stack.Logger)
	if port > 0 {
		return srv.ServeSSE(ctx, port)
	}
	return srv.ServeStdio()
}
