package supply

import (
	"context"
	"sync"
	"time"

	"surveybridge/internal/domain/survey"
	"surveybridge/internal/ports"
)

type fakeSurveys struct {
	surveys        []survey.Survey
	quotas         map[survey.ID][]survey.Quota
	qualifications map[survey.ID][]survey.Qualification
}

func (f *fakeSurveys) FindSurvey(_ context.Context, id survey.ID) (survey.Survey, error) {
	for _, s := range f.surveys {
		if s.SurveyID == id {
			return s, nil
		}
	}
	return survey.Survey{}, ports.ErrSurveyNotFound
}

func (f *fakeSurveys) ListLiveSurveys(_ context.Context, filter ports.SurveyFilter) ([]survey.Survey, error) {
	var out []survey.Survey
	for _, s := range f.surveys {
		if filter.LiveOnly && !s.Discoverable() {
			continue
		}
		if filter.Country != "" && s.Country != filter.Country {
			continue
		}
		if filter.LOI != nil && s.BidLengthOfInterview != *filter.LOI {
			continue
		}
		out = append(out, s)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSurveys) CreateSurvey(context.Context, survey.Survey) error { return nil }
func (f *fakeSurveys) UpdateSurvey(context.Context, survey.Survey) error { return nil }
func (f *fakeSurveys) SetStatus(context.Context, survey.ID, string) error {
	return nil
}
func (f *fakeSurveys) ReplaceQuotas(context.Context, survey.ID, []survey.Quota) error { return nil }
func (f *fakeSurveys) ReplaceQualifications(context.Context, survey.ID, []survey.Qualification) error {
	return nil
}

func (f *fakeSurveys) ListQuotas(_ context.Context, id survey.ID) ([]survey.Quota, error) {
	return f.quotas[id], nil
}

func (f *fakeSurveys) ListQualifications(_ context.Context, id survey.ID) ([]survey.Qualification, error) {
	return f.qualifications[id], nil
}

type fakePartners struct {
	partners []ports.SupplyPartner
}

func (f *fakePartners) FindByAPIKey(_ context.Context, apiKey string) (ports.SupplyPartner, error) {
	for _, p := range f.partners {
		if p.APIKey == apiKey {
			return p, nil
		}
	}
	return ports.SupplyPartner{}, ports.ErrPartnerNotFound
}

func (f *fakePartners) FindByID(_ context.Context, id int64) (ports.SupplyPartner, error) {
	for _, p := range f.partners {
		if p.PartnerID == id {
			return p, nil
		}
	}
	return ports.SupplyPartner{}, ports.ErrPartnerNotFound
}

func (f *fakePartners) Upsert(context.Context, ports.SupplyPartner) error { return nil }

type fakeRateCards struct {
	entries map[string][]survey.RateEntry
}

func (f *fakeRateCards) ListEntries(_ context.Context, cardID string) ([]survey.RateEntry, error) {
	return f.entries[cardID], nil
}

func (f *fakeRateCards) UpsertCard(context.Context, survey.RateCard) error { return nil }

type fakeCatalog struct {
	questions map[int64]ports.CatalogQuestion
}

func (f *fakeCatalog) FindQuestion(_ context.Context, id int64) (ports.CatalogQuestion, error) {
	q, ok := f.questions[id]
	if !ok {
		return ports.CatalogQuestion{}, ports.ErrQuestionNotFound
	}
	return q, nil
}

func (f *fakeCatalog) UpsertQuestion(context.Context, ports.CatalogQuestion) error { return nil }

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
	gets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func liveSurvey(id survey.ID, revenue float64) survey.Survey {
	return survey.Survey{
		SurveyID:             id,
		Name:                 "Consumer study",
		CountryLanguage:      "eng_us",
		Country:              "US",
		BidLengthOfInterview: 8,
		BidIncidence:         40,
		IsLive:               true,
		MessageReason:        survey.ReasonNew,
		RevenuePerInterview:  survey.Revenue{Value: revenue, Currency: "USD"},
		LiveLink:             "https://router.example/live",
		TestLink:             "https://router.example/test",
	}
}

func newTestSupplyService(surveys *fakeSurveys, partners *fakePartners, rateCards *fakeRateCards, catalog *fakeCatalog, cache *memoryCache) *Service {
	if surveys.quotas == nil {
		surveys.quotas = make(map[survey.ID][]survey.Quota)
	}
	if surveys.qualifications == nil {
		surveys.qualifications = make(map[survey.ID][]survey.Qualification)
	}
	if rateCards.entries == nil {
		rateCards.entries = make(map[string][]survey.RateEntry)
	}
	if catalog.questions == nil {
		catalog.questions = make(map[int64]ports.CatalogQuestion)
	}
	return NewService(surveys, partners, rateCards, catalog, cache, Config{
		DefaultMargin:   0.6,
		CacheTTL:        100 * time.Second,
		RedirectBaseURL: "https://api.qmapi.com/api/v2/survey/redirect",
	})
}
