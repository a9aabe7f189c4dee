package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"surveybridge/internal/bootstrap/config"
	"surveybridge/internal/bootstrap/database"
	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/errs"
	"surveybridge/internal/infrastructure/persistence/sql/model"
)

// App bundles the loaded config and the open database handle for
// commands that run outside the fx container (init-db, one-shot ingest).
type App struct {
	Config config.Config
	DB     *gorm.DB
}

func New(ctx context.Context, configFile string) (*App, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))

	cfg, err := config.Load(logCtx, configFile)
	if err != nil {
		return nil, errs.Wrap(err, "load config")
	}

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, errs.Wrap(err, "open database")
	}

	logging.Info(logCtx, "application ready",
		slog.String("config_file", configFile),
		slog.String("database_driver", cfg.Database.Driver),
	)
	return &App{Config: cfg, DB: db}, nil
}

// InitSchema migrates every table the marketplace persists: surveys with
// their quota and qualification sets, supply partners, rate-card
// entries, the qualification catalog and the SQL-backed cache.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))

	if err := a.DB.WithContext(ctx).AutoMigrate(
		&model.Survey{},
		&model.Quota{},
		&model.Qualification{},
		&model.SupplyPartner{},
		&model.RateEntry{},
		&model.CatalogQuestion{},
		&model.CacheEntry{},
	); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}
	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")), "database connection closed")
	return nil
}
