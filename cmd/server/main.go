package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Parley/internal/adapters/http"
	wsignal "github.com/dkeye/Parley/internal/adapters/signal"
	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/cryptox"
	"github.com/dkeye/Parley/internal/logging"
	"github.com/dkeye/Parley/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("parley stopped")
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Console logger first so config.Load can report problems.
	if err := logging.Setup("info", "console", os.Stderr); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return err
	}

	codec, err := cryptox.NewCodecFromString(cfg.Crypto.Key)
	if err != nil {
		return fmt.Errorf("crypto key: %w", err)
	}
	db, err := storage.Open(cfg.Storage.Path, cfg.Storage.InMemory, log.Logger)
	if err != nil {
		return err
	}
	store := storage.New(db, codec, log.Logger)
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()

	orch := app.NewOrchestrator(app.NewRegistry(), app.NewRoomManager(ctx), app.SimplePolicy{})
	chat := &app.Chat{
		Orch:            orch,
		Store:           store,
		Limiter:         app.NewRateLimiter(cfg.Chat.RateLimit, cfg.Chat.RateInterval),
		MaxMessageRunes: cfg.Chat.MaxMessageRunes,
	}
	ctl := wsignal.NewSignalWSController(chat, wsignal.Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		SendBuffer:     cfg.SendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	r := router.SetupRouter(ctx, router.Deps{
		Cfg:     cfg,
		Orch:    orch,
		Rooms:   store,
		History: app.NewHistoryLoader(store),
		Signal:  ctl,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Parley server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// hijacked websockets are not covered by srv.Shutdown
	orch.Shutdown()
	ctl.Wait()
	log.Info().Msg("Server exited gracefully")
	return nil
}
