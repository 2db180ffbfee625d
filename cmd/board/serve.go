package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/board/internal/config"
	"github.com/alfredjeanlab/board/internal/events"
	"github.com/alfredjeanlab/board/internal/prefs"
	"github.com/alfredjeanlab/board/internal/server"
	"github.com/alfredjeanlab/board/internal/source"
	"github.com/alfredjeanlab/board/internal/store"
	"github.com/alfredjeanlab/board/internal/store/memory"
	"github.com/alfredjeanlab/board/internal/store/postgres"
	boardsync "github.com/alfredjeanlab/board/internal/sync"
	"github.com/alfredjeanlab/board/internal/view"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the board HTTP and gRPC server",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// serve is the server; it never dials one.
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := openStore(cfg, logger)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (BOARD_NATS_URL not set)")
		}

		src, sourceName := openSource(cfg)
		ctx := context.Background()

		// Selectors come from the store so they survive restarts.
		kv := prefs.NewConfigKV(st)
		board := view.NewBoard(prefs.Load(ctx, kv, logger), view.WithLocale(cfg.Locale))
		saver := prefs.NewSaver(kv, logger)
		saver.Start()
		board.Subscribe(saver)

		boardServer := server.NewBoardServer(board, st, src, publisher, logger)
		boardServer.SourceName = sourceName
		if err := boardServer.Warm(ctx); err != nil {
			logger.Warn("failed to warm board from store", "error", err)
		}
		if _, err := boardServer.RefreshSnapshot(ctx); err != nil {
			logger.Warn("initial refresh failed", "error", err)
		}

		// Refresh on invalidation messages when NATS is available.
		watchCtx, watchCancel := context.WithCancel(ctx)
		var invalidations *events.NATSSubscriber
		if cfg.NATSURL != "" {
			invalidations, err = events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				logger.Error("failed to create invalidation subscriber", "err", err)
			} else if err := boardServer.WatchInvalidations(watchCtx, invalidations); err != nil {
				logger.Error("failed to watch invalidations", "err", err)
			} else {
				logger.Info("invalidation subscriber started", "topic", events.TopicSnapshotInvalidate)
			}
		}

		grpcServer := server.NewGRPCServer(boardServer, cfg.AuthToken)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			watchCancel()
			saver.Stop()
			publisher.Close()
			st.Close()
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: boardServer.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startScheduler(ctx, cfg, board, st, logger)

		logger.Info("board server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"source", sourceName,
			"selectors", board.Selectors(),
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		watchCancel()
		if invalidations != nil {
			invalidations.Close()
		}
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if scheduler != nil {
			stopScheduler(scheduler, logger)
		}
		saver.Stop()
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// openStore connects to Postgres when configured and falls back to the
// in-memory store otherwise.
func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory store (BOARD_DATABASE_URL not set)")
		return memory.New(), nil
	}
	st, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to postgres")
	return st, nil
}

func openSource(cfg *config.Config) (source.Source, string) {
	if cfg.SourceFile != "" {
		return source.NewFileSource(cfg.SourceFile), "file"
	}
	return source.NewHTTPSource(cfg.SourceURL, cfg.FetchTimeout), "http"
}

// stopScheduler stops the export loop and exports the final board state.
func stopScheduler(sched *boardsync.Scheduler, logger *slog.Logger) {
	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if !sched.SyncNow(ctx) {
		for _, st := range sched.Status() {
			if st.LastErr != nil {
				logger.Error("final export failed", "location", st.Location, "err", st.LastErr)
			}
		}
	}
	logger.Info("sync scheduler stopped")
}

// startScheduler starts periodic exports when a destination is configured.
func startScheduler(ctx context.Context, cfg *config.Config, b *view.Board, st store.Store, logger *slog.Logger) *boardsync.Scheduler {
	if !cfg.SyncEnabled() {
		return nil
	}
	var dests []boardsync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := boardsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "location", s3Dest.Location())
		}
	}
	if cfg.SyncGitRepo != "" {
		gitDest := boardsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch)
		dests = append(dests, gitDest)
		logger.Info("sync git destination enabled", "location", gitDest.Location())
	}
	if len(dests) == 0 {
		return nil
	}
	scheduler := boardsync.NewScheduler(b, st, dests, cfg.SyncInterval, logger)
	b.Subscribe(scheduler)
	scheduler.Start()
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}
