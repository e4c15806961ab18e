package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warbler/cache"
	"warbler/config"
	"warbler/database"
	"warbler/follows"
	"warbler/handlers"
	"warbler/logger"
	"warbler/messages"
	"warbler/repositories"
	"warbler/routes"
	"warbler/users"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFile)

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	followCache := cache.Connect(ctx, cfg.RedisURL, cfg.CacheTTL, log)
	defer followCache.Close()

	directory := users.NewDirectory(db, cfg.BcryptCost, followCache, log)
	graph := follows.NewGraph(repositories.NewFollowRepository(db), directory, followCache, log)
	msgs := messages.NewService(repositories.NewMessageRepository(db), log)

	store := sessions.NewCookieStore([]byte(cfg.SecretKey))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	h := handlers.NewHandler(db, directory, graph, msgs, store, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRoutes(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
