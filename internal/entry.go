// Package internal provides the main application initialization and
// runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/murmur/internal/api"
	"github.com/starford/murmur/internal/capture"
	"github.com/starford/murmur/internal/finalize"
	"github.com/starford/murmur/internal/inbox"
	"github.com/starford/murmur/internal/kv"
	"github.com/starford/murmur/internal/mcpserver"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/process"
	"github.com/starford/murmur/internal/sse"
	"github.com/starford/murmur/internal/storage"
	"github.com/starford/murmur/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure library and inbox directories exist.
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return fmt.Errorf("create library dir: %w", err)
	}
	if cfg.Library.InboxPath != "" {
		if err := os.MkdirAll(cfg.Library.InboxPath, 0o755); err != nil {
			return fmt.Errorf("create inbox dir: %w", err)
		}
	}

	blobs, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := kv.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	st := store.New(db, logger)
	if err := st.Load(); err != nil {
		return fmt.Errorf("load recordings: %w", err)
	}

	// SSE broker; the store fans its mutations into it.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	st.SetNotifier(func(event string, rec models.Recording) {
		broker.PublishRecordingEvent(event, rec.ID, rec.Title)
	})

	// Processing pipeline against the configured services.
	pipeline := process.New(st, blobs,
		process.NewHTTPTranscriber(cfg.Transcriber.URL, cfg.Transcriber.APIKey),
		process.NewHTTPSummarizer(cfg.Summarizer.URL, cfg.Summarizer.APIKey),
		logger,
	)

	// Live capture session over the microphone (or an injected device).
	device := app.device
	if device == nil {
		device = capture.NewMic(cfg.Capture.Format, cfg.Capture.Input)
	}
	session := capture.NewSession(device, logger)
	session.SetStateCallback(func(state capture.State) {
		broker.PublishCaptureState(string(state))
	})

	ing := inbox.NewIngestor(st, blobs, logger)

	// The finalization flow can ask the whole app to exit (saveAndExit).
	appCtx, requestExit := context.WithCancel(ctx)
	defer requestExit()
	flow := finalize.NewFlow(session, st, blobs, logger)
	flow.SetExitCallback(func() { requestExit() })

	// HTTP router.
	apiHandler := api.NewHandler(st, pipeline, ing, blobs)
	captureHandler := api.NewCaptureHandler(session, flow)
	apiRouter := api.NewRouter(apiHandler, captureHandler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(appCtx)

	// Inbox watcher ingesting dropped audio files.
	if cfg.Library.InboxPath != "" {
		g.Go(func() error {
			return inbox.Watch(gCtx, ing, cfg.Library.InboxPath, 0, logger)
		})
	}

	// Trash sweeper: recordings past retention are purged and their
	// audio payloads deleted.
	g.Go(func() error {
		retention := time.Duration(cfg.Trash.RetentionDays) * 24 * time.Hour
		ticker := time.NewTicker(cfg.Trash.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				purged := st.PurgeTrash(time.Now().Add(-retention))
				for _, rec := range purged {
					if err := blobs.Delete(rec.AudioRef); err != nil {
						logger.Warn("sweep: delete blob failed",
							slog.String("id", rec.ID), slog.String("error", err.Error()))
					}
				}
				if len(purged) > 0 {
					logger.Info("sweep: purged trash", slog.Int("count", len(purged)))
				}
			}
		}
	})

	// HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shutdown on signal or on an exit requested by the capture flow.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Release the microphone and drain in-flight pipeline work.
		session.Reset()
		pipeline.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server over the same library and catalog.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Logs go to stderr: stdout carries the MCP protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	blobs, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	db, err := kv.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	st := store.New(db, logger)
	if err := st.Load(); err != nil {
		return fmt.Errorf("load recordings: %w", err)
	}

	pipeline := process.New(st, blobs,
		process.NewHTTPTranscriber(cfg.Transcriber.URL, cfg.Transcriber.APIKey),
		process.NewHTTPSummarizer(cfg.Summarizer.URL, cfg.Summarizer.APIKey),
		logger,
	)

	srv := mcpserver.New(st, pipeline)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
