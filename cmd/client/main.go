package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/akorche/groupclass/internal/adapters/http"
	"github.com/akorche/groupclass/internal/adapters/rtc"
	"github.com/akorche/groupclass/internal/adapters/ws"
	"github.com/akorche/groupclass/internal/config"
	"github.com/akorche/groupclass/internal/domain"
	"github.com/akorche/groupclass/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	userID := cfg.UserID
	if userID == "" {
		userID = uuid.NewString()
	}
	defaults := session.Params{
		Room: domain.RoomID(cfg.Room),
		User: domain.User{
			ID:   domain.UserID(userID),
			Name: cfg.UserName,
			Role: domain.Role(cfg.Role),
		},
		RoomType: domain.RoomType(cfg.RoomType),
		Tick:     cfg.TickInterval,
	}

	mgr := session.NewManager(func(p session.Params) (*session.Session, error) {
		channel, err := ws.Dial(ctx, cfg.SignalURL)
		if err != nil {
			return nil, err
		}
		devices, err := rtc.New(rtc.DefaultConfig(), cfg.HasCamera, cfg.HasMicrophone)
		if err != nil {
			channel.Close()
			return nil, err
		}
		return session.New(p, channel, devices), nil
	})

	r := router.SetupRouter(cfg, mgr, defaults)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("groupclass client started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	mgr.StopAll(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Client exited gracefully")
}
