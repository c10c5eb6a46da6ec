package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/epiclo/go-session-middleware/config"
	"github.com/epiclo/go-session-middleware/storage/postgres"
)

func main() {
	cfg := config.MustLoad(config.ModeMigration)

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(ctx, cfg.Storage.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer store.Close()

	if err := postgres.Migrate(ctx, store.DB()); err != nil {
		_ = store.Close()
		log.WithError(err).Fatal("migration failed")
	}

	log.Info("migrations applied")
}
