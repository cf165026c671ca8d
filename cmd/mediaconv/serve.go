package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coah80/mediaconv/internal/alerts"
	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
	"github.com/coah80/mediaconv/internal/middleware"
	"github.com/coah80/mediaconv/internal/routes"
	"github.com/coah80/mediaconv/internal/server"
	"github.com/coah80/mediaconv/internal/services"
	"github.com/coah80/mediaconv/internal/util"
)

var serveLogger = logger.Get("Server")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if err := util.EnsureDirs(cfg.UploadFolder, cfg.OutputFolder); err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server.PrintBanner(cfg)
	if missing := util.MissingRequired(util.CheckDependencies()); len(missing) > 0 {
		serveLogger.Emit(logger.WARNING, "Missing tools on PATH: %s\n", strings.Join(missing, ", "))
	}

	notifier, err := alerts.New(cfg)
	if err != nil {
		serveLogger.Emit(logger.WARNING, "Discord alerts disabled: %v\n", err)
		notifier = nil
	}

	sweeper := util.NewSweeperFromConfig(cfg)
	sweeper.OnFailure = notifier.SweepFailed
	sweeper.Start(ctx)

	limiter := middleware.NewRateLimiter(config.RateLimitWindow, config.RateLimitMax)
	limiter.StartCleanup(ctx)

	jobs := services.NewJobTracker(cfg.MaxConcurrentJobs, cfg.OutputFolder)
	converter := services.NewConverter(cfg, services.ExecRunner{})
	srv := server.New(cfg, server.Deps{
		Convert:     routes.NewConvertHandler(cfg, converter, jobs, notifier),
		RateLimiter: limiter,
	})

	errCh := make(chan error, 1)
	go func() {
		serveLogger.Emit(logger.SUCCESS, "Listening on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	notifier.ServerStarted(cfg.Port)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	serveLogger.Emit(logger.INFO, "Shutting down...\n")
	notifier.ServerStopping()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "forced shutdown: %v\n", err)
		return err
	}
	serveLogger.Emit(logger.INFO, "Server stopped\n")
	return nil
}
