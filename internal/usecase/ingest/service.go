package ingest

import (
	"context"
	"time"

	"surveybridge/internal/ports"
)

const (
	defaultConcurrency    = 20
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
)

// Config tunes the ingestion pipeline. Lower concurrency trades
// throughput for fewer lock conflicts under write contention.
type Config struct {
	Concurrency    int
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = defaultConcurrency
	}
	if c.RetryAttempts < 1 {
		c.RetryAttempts = defaultRetryAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = defaultRetryBaseDelay
	}
	return c
}

// Service reconciles inbound survey events against persisted state.
type Service struct {
	repo      ports.SurveyRepository
	uow       ports.UnitOfWork
	resolver  ports.LinkResolver
	publisher ports.EventPublisher
	cfg       Config

	// sleep is swapped in tests to observe backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewService(
	repo ports.SurveyRepository,
	uow ports.UnitOfWork,
	resolver ports.LinkResolver,
	publisher ports.EventPublisher,
	cfg Config,
) *Service {
	if publisher == nil {
		publisher = noopPublisher{}
	}

	return &Service{
		repo:      repo,
		uow:       uow,
		resolver:  resolver,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		sleep:     sleepContext,
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ports.LifecycleEvent) error { return nil }

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
