package bootstrap

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"surveybridge/internal/bootstrap/config"
	"surveybridge/internal/bootstrap/database"
	"surveybridge/internal/bootstrap/logging"
	cacheinfra "surveybridge/internal/infrastructure/cache"
	sqlrepo "surveybridge/internal/infrastructure/persistence/sql/repository"
	sqluow "surveybridge/internal/infrastructure/persistence/sql/uow"
	prescreeninfra "surveybridge/internal/infrastructure/prescreen"
	"surveybridge/internal/infrastructure/provisioner"
	"surveybridge/internal/infrastructure/publish"
	"surveybridge/internal/infrastructure/ratecard"
	"surveybridge/internal/ports"
	"surveybridge/internal/usecase/ingest"
	"surveybridge/internal/usecase/prescreen"
	"surveybridge/internal/usecase/supply"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqlrepo.NewSurveyRepository,
			fx.As(new(ports.SurveyRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqlrepo.NewPartnerRepository,
			fx.As(new(ports.PartnerRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqlrepo.NewRateCardRepository,
			fx.As(new(ports.RateCardRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqlrepo.NewQualificationCatalog,
			fx.As(new(ports.QualificationCatalog)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqluow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideResolver),
	fx.Provide(providePublisher),
	fx.Provide(provideIngestService),
	fx.Provide(provideSupplyService),
	fx.Provide(providePrescreenService),
	fx.Provide(provideRateCardWatcher),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) ports.Cache {
	if cfg.Cache.Driver != "redis" {
		return cacheinfra.NewSQLCache(db)
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
		DB:   cfg.Cache.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	logging.Info(ctx, "cache backed by redis", slog.String("addr", cfg.Cache.RedisAddr))
	return cacheinfra.NewRedisCache(client)
}

func provideResolver(cfg config.Config) ports.LinkResolver {
	return provisioner.NewSupplierLinksClient(cfg.Provisioner)
}

func providePublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.EventPublisher, error) {
	if cfg.Events.NATSURL == "" {
		return publish.NoopPublisher{}, nil
	}

	conn, err := nats.Connect(cfg.Events.NATSURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return conn.Drain()
		},
	})

	logging.Info(ctx, "lifecycle events published to nats", slog.String("url", cfg.Events.NATSURL))
	return publish.NewNATSPublisher(conn, cfg.Events.SubjectPrefix), nil
}

func provideIngestService(
	repo ports.SurveyRepository,
	uow ports.UnitOfWork,
	resolver ports.LinkResolver,
	publisher ports.EventPublisher,
	cfg config.Config,
) *ingest.Service {
	return ingest.NewService(repo, uow, resolver, publisher, ingest.Config{
		Concurrency:    cfg.Ingest.Concurrency,
		RetryAttempts:  cfg.Ingest.RetryAttempts,
		RetryBaseDelay: cfg.Ingest.RetryBaseDelay,
	})
}

func provideSupplyService(
	surveys ports.SurveyRepository,
	partners ports.PartnerRepository,
	rateCards ports.RateCardRepository,
	catalog ports.QualificationCatalog,
	cache ports.Cache,
	cfg config.Config,
) *supply.Service {
	return supply.NewService(surveys, partners, rateCards, catalog, cache, supply.Config{
		DefaultMargin:   cfg.Pricing.DefaultMargin,
		CacheTTL:        cfg.Cache.DiscoveryTTL,
		RedirectBaseURL: cfg.Redirect.BaseURL,
	})
}

func providePrescreenService(
	surveys ports.SurveyRepository,
	catalog ports.QualificationCatalog,
	cache ports.Cache,
	cfg config.Config,
) *prescreen.Service {
	generator := prescreeninfra.NewOpenAIGenerator(cfg.Prescreen.APIKey, cfg.Prescreen.Model)
	return prescreen.NewService(surveys, catalog, cache, generator, prescreen.Config{
		CacheTTL: cfg.Cache.PrescreenTTL,
	})
}

func provideRateCardWatcher(rateCards ports.RateCardRepository, cfg config.Config) *ratecard.Watcher {
	return ratecard.NewWatcher(rateCards, cfg.RateCards.Dir)
}
