package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"medease/m/internal/client"
	"medease/m/internal/config"
	"medease/m/internal/database"
	"medease/m/internal/logging"
	"medease/m/internal/migrations"
	"medease/m/internal/session"
	"medease/m/internal/web"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.IsProd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	api := client.New(cfg.APIBaseURL, client.WithHTTPClient(&http.Client{Timeout: 15 * time.Second}))
	sessions := session.NewManager(store, api, session.Options{
		Secret: cfg.Secret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProd,
	})

	server, err := web.New(sessions, func(token string) web.Backend {
		return api.WithToken(token)
	})
	if err != nil {
		logrus.WithError(err).Fatal("unable to load templates")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("api", cfg.APIBaseURL).Infof("MedEase dashboard starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logrus.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("unclean shutdown")
	}
}

// openStore builds the configured session store. The SQL store also gets a
// background sweeper for expired rows; Redis expires keys itself.
func openStore(ctx context.Context, cfg config.Config) (session.Store, func()) {
	if cfg.SessionStore == config.SessionStoreRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).Fatal("unable to reach redis")
		}
		logrus.WithField("addr", cfg.RedisAddr).Info("sessions stored in redis")
		return session.NewRedisStore(rdb), func() { _ = rdb.Close() }
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logrus.WithError(err).Fatal("unable to open session database")
	}
	if err := migrations.RunSessions(db); err != nil {
		logrus.WithError(err).Fatal("unable to migrate session database")
	}
	store := session.NewSQLStore(db)
	go purgeExpired(ctx, store, time.Hour)
	return store, func() { _ = db.Close() }
}

func purgeExpired(ctx context.Context, store *session.SQLStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logrus.WithError(err).Warn("session purge failed")
				continue
			}
			if n > 0 {
				logrus.WithField("sessions", n).Debug("purged expired sessions")
			}
		}
	}
}
