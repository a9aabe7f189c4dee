package supply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"surveybridge/internal/ports"
)

// ErrUnauthorized covers both a missing and an unknown API key.
var ErrUnauthorized = errors.New("invalid or missing api key")

const defaultListLimit = 200

// Config tunes the supply-side read path.
type Config struct {
	DefaultMargin   float64
	CacheTTL        time.Duration
	RedirectBaseURL string
}

func (c Config) withDefaults() Config {
	if c.DefaultMargin <= 0 || c.DefaultMargin > 1 {
		c.DefaultMargin = 0.6
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 100 * time.Second
	}
	if c.RedirectBaseURL == "" {
		c.RedirectBaseURL = "https://api.qmapi.com/api/v2/survey/redirect"
	}
	return c
}

// Service serves partner-facing survey discovery, pricing and respondent
// redirects.
type Service struct {
	surveys   ports.SurveyRepository
	partners  ports.PartnerRepository
	rateCards ports.RateCardRepository
	catalog   ports.QualificationCatalog
	cache     ports.Cache
	cfg       Config
}

func NewService(
	surveys ports.SurveyRepository,
	partners ports.PartnerRepository,
	rateCards ports.RateCardRepository,
	catalog ports.QualificationCatalog,
	cache ports.Cache,
	cfg Config,
) *Service {
	return &Service{
		surveys:   surveys,
		partners:  partners,
		rateCards: rateCards,
		catalog:   catalog,
		cache:     cache,
		cfg:       cfg.withDefaults(),
	}
}

// ResolvePartner authenticates a supply partner by API key.
func (s *Service) ResolvePartner(ctx context.Context, apiKey string) (ports.SupplyPartner, error) {
	if ctx == nil {
		return ports.SupplyPartner{}, errors.New("context is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return ports.SupplyPartner{}, ErrUnauthorized
	}

	partner, err := s.partners.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, ports.ErrPartnerNotFound) {
			return ports.SupplyPartner{}, ErrUnauthorized
		}
		return ports.SupplyPartner{}, fmt.Errorf("resolve partner: %w", err)
	}
	return partner, nil
}
