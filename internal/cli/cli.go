package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"civic-chat/internal/logging"
	"civic-chat/internal/router"
)

const shutdownTimeout = 10 * time.Second

type Error struct {
	Code    int
	Message string
}

// Run executes the command line. Without a subcommand it serves Lambda
// invocations.
func Run(ctx context.Context, argv []string) *Error {
	cfg := newConfig()
	cmd := &cli.Command{
		Name:  "civic-chat",
		Usage: "Civic issue reporting chat assistant",
		Flags: globalFlags(cfg),
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			cfg.setupLogger()
			return ctx, nil
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return runLambda(ctx, cfg)
		},
		Commands: []*cli.Command{
			serveCommand(cfg),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "err", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}
	return nil
}

func runLambda(ctx context.Context, cfg *config) error {
	h, cleanup, err := cfg.newHandler(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	logging.Default().Info("starting lambda handler", "store", cfg.storeBackend, "model", cfg.geminiModel)
	lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx))
	return nil
}

func serveCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the chat endpoint over HTTP",
		Flags: serveFlags(cfg),
		Action: func(ctx context.Context, _ *cli.Command) error {
			return runServer(ctx, cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, cleanup, err := cfg.newHandler(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           router.New(h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Default().Info("http server listening", "addr", cfg.addr, "store", cfg.storeBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return goerr.Wrap(err, "http server failed", goerr.V("addr", cfg.addr))
		}
		return nil
	case <-ctx.Done():
	}

	logging.Default().Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shut down http server")
	}
	return nil
}
