package bootstrap

import (
	"context"
	"errors"

	"medminion/config"
	"medminion/internal/infrastructure/database"
	"medminion/internal/repository/mongostore"

	"github.com/sirupsen/logrus"
)

var ErrMigrateDownUnsupported = errors.New("migrate down is not supported for the mongo store")

// MigrateUp applies the schema for the configured store
func MigrateUp(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	if cfg.App.StoreDriver != config.StoreDriverMongo {
		if err := database.MigrateUp(cfg.DB.URL()); err != nil {
			return err
		}
		log.Info("Database migrations applied")
		return nil
	}

	client, db, err := database.NewMongoConnection(ctx, cfg.Mongo, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warnf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	log.Info("MongoDB indexes ensured")
	return nil
}

// MigrateDown rolls back the given number of Postgres migrations
func MigrateDown(cfg *config.Config, log *logrus.Logger, steps int) error {
	if cfg.App.StoreDriver == config.StoreDriverMongo {
		return ErrMigrateDownUnsupported
	}
	if err := database.MigrateDown(cfg.DB.URL(), steps); err != nil {
		return err
	}
	log.Infof("Rolled back %d migration(s)", steps)
	return nil
}
