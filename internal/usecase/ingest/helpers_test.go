package ingest

import (
	"context"
	"sync"
	"time"

	"surveybridge/internal/domain/survey"
	"surveybridge/internal/ports"
)

// fakeRepo is a map-backed SurveyRepository for reconciler tests.
type fakeRepo struct {
	mu             sync.Mutex
	surveys        map[survey.ID]survey.Survey
	quotas         map[survey.ID][]survey.Quota
	qualifications map[survey.ID][]survey.Qualification

	// failures to inject, consumed one per call
	createErrs []error
	updateErrs []error
	statusErrs []error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		surveys:        make(map[survey.ID]survey.Survey),
		quotas:         make(map[survey.ID][]survey.Quota),
		qualifications: make(map[survey.ID][]survey.Qualification),
	}
}

func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (r *fakeRepo) FindSurvey(_ context.Context, id survey.ID) (survey.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return survey.Survey{}, ports.ErrSurveyNotFound
	}
	return s, nil
}

func (r *fakeRepo) ListLiveSurveys(_ context.Context, _ ports.SurveyFilter) ([]survey.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []survey.Survey
	for _, s := range r.surveys {
		if s.Discoverable() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateSurvey(_ context.Context, s survey.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := popErr(&r.createErrs); err != nil {
		return err
	}
	if _, ok := r.surveys[s.SurveyID]; ok {
		return ports.ErrDuplicateSurvey
	}
	r.surveys[s.SurveyID] = s
	return nil
}

func (r *fakeRepo) UpdateSurvey(_ context.Context, s survey.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := popErr(&r.updateErrs); err != nil {
		return err
	}
	stored, ok := r.surveys[s.SurveyID]
	if !ok {
		return ports.ErrSurveyNotFound
	}
	// Stored link and lifecycle fields survive updates.
	s.LiveLink = stored.LiveLink
	s.TestLink = stored.TestLink
	s.MessageReason = stored.MessageReason
	s.CreatedAt = stored.CreatedAt
	r.surveys[s.SurveyID] = s
	return nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id survey.ID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := popErr(&r.statusErrs); err != nil {
		return err
	}
	s, ok := r.surveys[id]
	if !ok {
		return ports.ErrSurveyNotFound
	}
	s.MessageReason = reason
	s.IsLive = reason != survey.ReasonDeactivated
	r.surveys[id] = s
	return nil
}

func (r *fakeRepo) ReplaceQuotas(_ context.Context, id survey.ID, quotas []survey.Quota) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotas[id] = quotas
	return nil
}

func (r *fakeRepo) ReplaceQualifications(_ context.Context, id survey.ID, quals []survey.Qualification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.qualifications[id] = quals
	return nil
}

func (r *fakeRepo) ListQuotas(_ context.Context, id survey.ID) ([]survey.Quota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quotas[id], nil
}

func (r *fakeRepo) ListQualifications(_ context.Context, id survey.ID) ([]survey.Qualification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.qualifications[id], nil
}

// fakeUOW runs the callback without a real transaction.
type fakeUOW struct{}

func (fakeUOW) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeResolver struct {
	mu       sync.Mutex
	links    survey.Links
	err      error
	calls    int
	inUse    int
	maxInUse int
	block    chan struct{}
}

func (r *fakeResolver) Resolve(_ context.Context, _ survey.ID) (survey.Links, error) {
	r.mu.Lock()
	r.calls++
	r.inUse++
	if r.inUse > r.maxInUse {
		r.maxInUse = r.inUse
	}
	block := r.block
	r.mu.Unlock()

	if block != nil {
		<-block
	}

	r.mu.Lock()
	r.inUse--
	r.mu.Unlock()
	return r.links, r.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.LifecycleEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event ports.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newTestService(repo *fakeRepo, resolver *fakeResolver, publisher *recordingPublisher) *Service {
	svc := NewService(repo, fakeUOW{}, resolver, publisher, Config{
		Concurrency:    4,
		RetryAttempts:  3,
		RetryBaseDelay: time.Second,
	})
	// Tests never sleep for real.
	svc.sleep = func(context.Context, time.Duration) error { return nil }
	return svc
}

func newEvent(id survey.ID, reason string) survey.InboundEvent {
	return survey.InboundEvent{
		SurveyID:             id,
		SurveyName:           "Consumer study",
		CountryLanguage:      "eng_us",
		Country:              "US",
		BidLengthOfInterview: 10,
		BidIncidence:         40,
		IsLive:               true,
		MessageReason:        reason,
		RevenuePerInterview:  survey.Revenue{Value: 10, Currency: "USD"},
	}
}
