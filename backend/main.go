package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"medease/m/internal/api"
	"medease/m/internal/config"
	"medease/m/internal/database"
	"medease/m/internal/events"
	"medease/m/internal/logging"
	"medease/m/internal/migrations"
	"medease/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv("8081")
	logging.Setup(cfg.LogLevel, cfg.IsProd)

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logrus.WithError(err).Fatal("unable to open database")
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		logrus.WithError(err).Fatal("unable to migrate database")
	}
	if cfg.SeedCSV != "" {
		n, err := seed.LoadInventory(db, cfg.SeedCSV)
		if err != nil {
			logrus.WithError(err).Warn("inventory seed failed")
		} else {
			logrus.WithField("rows", n).Info("inventory seeded")
		}
	}

	var pub events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, "medease-api", 1024)
		producer.Start()
		pub = producer
		logrus.WithField("brokers", cfg.KafkaBrokers).Info("publishing events to kafka")
	}

	handler := api.New(db, cfg.Secret, pub, cfg.AdminEmails...)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("MedEase API server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logrus.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("unclean shutdown")
	}
	if producer != nil {
		producer.Close()
	}
}
