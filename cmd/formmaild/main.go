// Command formmaild serves the Braam Fashion Week application and contact
// forms and relays valid submissions by email.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/braamfashionweek/formmail"
	"github.com/braamfashionweek/formmail/internal/config"
	"github.com/braamfashionweek/formmail/internal/logging"
	"github.com/braamfashionweek/formmail/internal/server"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(formmail.GetVersionInfo().String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging(), logging.RequestID)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	defer func() { _ = closer.Close() }()
	slog.SetDefault(logger)

	catalog := formmail.DefaultCatalog()
	if cfg.FormsPath != "" {
		catalog, err = formmail.LoadCatalog(cfg.FormsPath)
		if err != nil {
			return fmt.Errorf("loading forms: %w", err)
		}
		slog.Info("forms catalog loaded", "path", cfg.FormsPath, "forms", catalog.IDs())
	}

	// A relay that cannot be built leaves the forms up but inert.
	var transport formmail.Transport
	client, err := formmail.New(formmail.DefaultConfig(), cfg.ClientOptions()...)
	if err != nil {
		slog.Error("email relay is not configured; submissions will not be sent", "error", err)
	} else {
		transport = client
		defer func() { _ = client.Close() }()
		slog.Info("email relay ready", "provider", cfg.Provider)
	}

	srv, err := server.New(catalog, transport, logger, server.Options{
		BannerTTL:      cfg.BannerTTL,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.SendTimeout + 30*time.Second, // SSE streams outlive the send by the banner lifetime
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Addr, "env", cfg.Env, "version", formmail.Version)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
