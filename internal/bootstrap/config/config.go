package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/errs"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Provisioner ProvisionerConfig `mapstructure:"provisioner"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	Pricing     PricingConfig     `mapstructure:"pricing"`
	Events      EventsConfig      `mapstructure:"events"`
	Redirect    RedirectConfig    `mapstructure:"redirect"`
	RateCards   RateCardsConfig   `mapstructure:"ratecards"`
	Prescreen   PrescreenConfig   `mapstructure:"prescreen"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CacheConfig struct {
	Driver       string        `mapstructure:"driver"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	RedisDB      int           `mapstructure:"redis_db"`
	DiscoveryTTL time.Duration `mapstructure:"discovery_ttl"`
	PrescreenTTL time.Duration `mapstructure:"prescreen_ttl"`
}

// ProvisionerConfig points at the demand-side supplier-link API.
type ProvisionerConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Token       string        `mapstructure:"token"`
	ProductCode string        `mapstructure:"product_code"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type IngestConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

type PricingConfig struct {
	// DefaultMargin is applied to revenue_per_interview for partners
	// without a rate card.
	DefaultMargin float64 `mapstructure:"default_margin"`
}

type EventsConfig struct {
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type RedirectConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type RateCardsConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

type PrescreenConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Ingest.Concurrency < 1 {
		return Config{}, errors.New("ingest.concurrency must be at least 1")
	}
	if cfg.Pricing.DefaultMargin <= 0 || cfg.Pricing.DefaultMargin > 1 {
		return Config{}, errors.New("pricing.default_margin must be in (0, 1]")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("cache_driver", cfg.Cache.Driver),
		slog.Int("ingest_concurrency", cfg.Ingest.Concurrency),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "surveybridge")
	v.SetDefault("app.env", "local")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".data/surveybridge.sqlite")

	v.SetDefault("cache.driver", "sql")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.discovery_ttl", 100*time.Second)
	v.SetDefault("cache.prescreen_ttl", 24*time.Hour)

	v.SetDefault("provisioner.base_url", "https://api.samplicio.us/Supply/v1/SupplierLinks")
	v.SetDefault("provisioner.product_code", "6588")
	v.SetDefault("provisioner.timeout", 10*time.Second)

	v.SetDefault("ingest.concurrency", 20)
	v.SetDefault("ingest.retry_attempts", 3)
	v.SetDefault("ingest.retry_base_delay", time.Second)

	v.SetDefault("pricing.default_margin", 0.6)

	v.SetDefault("events.subject_prefix", "surveys")

	v.SetDefault("redirect.base_url", "https://api.qmapi.com/api/v2/survey/redirect")

	v.SetDefault("ratecards.dir", "configs/ratecards")
	v.SetDefault("ratecards.watch", false)

	v.SetDefault("prescreen.model", "gpt-3.5-turbo")
}
