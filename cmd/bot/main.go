package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birthday-guard-backend/internal/bot"
	cacheredis "birthday-guard-backend/internal/cache/redis"
	"birthday-guard-backend/internal/common/logger"
	"birthday-guard-backend/internal/config"
	birthdayrepo "birthday-guard-backend/internal/features/birthday/repository/sqlite"
	birthdayservice "birthday-guard-backend/internal/features/birthday/service"
	enfrepo "birthday-guard-backend/internal/features/enforcement/repository/sqlite"
	enfservice "birthday-guard-backend/internal/features/enforcement/service"
	inviterepo "birthday-guard-backend/internal/features/invite/repository/sqlite"
	inviteservice "birthday-guard-backend/internal/features/invite/service"
	rosterrepo "birthday-guard-backend/internal/features/roster/repository/sqlite"
	rosterservice "birthday-guard-backend/internal/features/roster/service"
	opshttp "birthday-guard-backend/internal/http"
	rplatform "birthday-guard-backend/internal/platform/redis"
	"birthday-guard-backend/internal/platform/sqlite"
	"birthday-guard-backend/internal/platform/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("birthday-guard-backend", cfg.Debug)

	db, err := sqlite.New(cfg.Database.Path, sqlite.Migrations())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	tgClient := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)

	userRepository := rosterrepo.NewUserRepository(db.DB())
	chatRepository := rosterrepo.NewChatRepository(db.DB())
	membershipRepository := rosterrepo.NewMembershipRepository(db.DB())
	birthdayRepository := birthdayrepo.NewBirthdayRepository(db.DB())
	banRepository := enfrepo.NewBanRepository(db.DB())
	bindingRepository := inviterepo.NewBindingRepository(db.DB())

	rosterSvc := rosterservice.NewRosterService(userRepository, chatRepository, membershipRepository)
	birthdaySvc := birthdayservice.NewBirthdayService(
		birthdayRepository, userRepository, membershipRepository, banRepository,
		cfg.Enforcement.Lookahead)
	gate := inviteservice.NewGate(bindingRepository, tgClient, banRepository)
	coordinator := enfservice.NewCoordinator(
		banRepository, gate, rosterSvc, tgClient,
		cfg.Enforcement.BanDuration, cfg.Enforcement.MaxConcurrent)
	scheduler := enfservice.NewScheduler(birthdaySvc, coordinator, cfg.Enforcement.ScanInterval)

	var memberCache bot.MemberCache
	if cfg.Redis.Enabled {
		rc, err := rplatform.Open(context.Background(),
			fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rc.Close()
		memberCache = cacheredis.NewMemberCache(rc, 30*24*time.Hour)
		logger.Info().Msg("Member cache enabled")
	}

	b := bot.New(tgClient, rosterSvc, birthdaySvc, coordinator, gate, memberCache, cfg.Telegram.PollTimeoutSec)

	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      opshttp.NewRouter(db, scheduler, cfg.Server.Origin, cfg.Debug),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Ops server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Ops server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info().Msg("Shutting down")
		cancel()
	}()

	if err := b.Run(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("Update loop stopped")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Ops server forced to shut down")
	}

	logger.Info().Msg("Bye")
}
