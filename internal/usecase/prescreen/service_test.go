package prescreen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"surveybridge/internal/domain/survey"
	"surveybridge/internal/ports"
)

type fakeSurveys struct {
	surveys        map[survey.ID]survey.Survey
	qualifications map[survey.ID][]survey.Qualification
}

func (f *fakeSurveys) FindSurvey(_ context.Context, id survey.ID) (survey.Survey, error) {
	s, ok := f.surveys[id]
	if !ok {
		return survey.Survey{}, ports.ErrSurveyNotFound
	}
	return s, nil
}

func (f *fakeSurveys) ListLiveSurveys(context.Context, ports.SurveyFilter) ([]survey.Survey, error) {
	return nil, nil
}
func (f *fakeSurveys) CreateSurvey(context.Context, survey.Survey) error  { return nil }
func (f *fakeSurveys) UpdateSurvey(context.Context, survey.Survey) error  { return nil }
func (f *fakeSurveys) SetStatus(context.Context, survey.ID, string) error { return nil }
func (f *fakeSurveys) ReplaceQuotas(context.Context, survey.ID, []survey.Quota) error {
	return nil
}
func (f *fakeSurveys) ReplaceQualifications(context.Context, survey.ID, []survey.Qualification) error {
	return nil
}
func (f *fakeSurveys) ListQuotas(context.Context, survey.ID) ([]survey.Quota, error) {
	return nil, nil
}
func (f *fakeSurveys) ListQualifications(_ context.Context, id survey.ID) ([]survey.Qualification, error) {
	return f.qualifications[id], nil
}

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
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type fakeGenerator struct {
	calls   int
	prompts []string
	output  []byte
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) ([]byte, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	return g.output, g.err
}

func fixture() (*Service, *fakeGenerator, *memoryCache) {
	surveys := &fakeSurveys{
		surveys: map[survey.ID]survey.Survey{"100": {SurveyID: "100"}},
		qualifications: map[survey.ID][]survey.Qualification{
			"100": {
				{SurveyID: "100", QuestionID: 42, Precodes: []string{"1", "2"}},
				{SurveyID: "100", QuestionID: 99, Precodes: []string{"3"}},
			},
		},
	}
	catalog := &fakeCatalog{questions: map[int64]ports.CatalogQuestion{
		42: {QuestionID: 42, Question: "What is your age?"},
	}}
	cache := &memoryCache{entries: make(map[string]string)}
	generator := &fakeGenerator{output: []byte(`{"prescreening_questions": []}`)}
	svc := NewService(surveys, catalog, cache, generator, Config{CacheTTL: time.Hour})
	return svc, generator, cache
}

func TestQuestionnaireGeneratesAndCaches(t *testing.T) {
	t.Parallel()

	svc, generator, cache := fixture()

	out, err := svc.Questionnaire(context.Background(), "100")
	if err != nil {
		t.Fatalf("Questionnaire() error = %v", err)
	}
	if string(out) != `{"prescreening_questions": []}` {
		t.Fatalf("output = %s", out)
	}
	if generator.calls != 1 {
		t.Fatalf("generator calls = %d", generator.calls)
	}
	if _, ok := cache.entries["prescreen:100"]; !ok {
		t.Fatal("result was not cached")
	}

	prompt := generator.prompts[0]
	if !strings.Contains(prompt, "Q: What is your age?, A: 1, 2") {
		t.Fatalf("prompt missing enriched question: %q", prompt)
	}
	// Catalog misses render the raw question id.
	if !strings.Contains(prompt, "Q: 99, A: 3") {
		t.Fatalf("prompt missing fallback question: %q", prompt)
	}

	// Second call short-circuits on the cache.
	if _, err := svc.Questionnaire(context.Background(), "100"); err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if generator.calls != 1 {
		t.Fatalf("generator calls after cache hit = %d", generator.calls)
	}
}

func TestQuestionnaireUnknownSurvey(t *testing.T) {
	t.Parallel()

	svc, _, _ := fixture()
	if _, err := svc.Questionnaire(context.Background(), "404"); !errors.Is(err, ports.ErrSurveyNotFound) {
		t.Fatalf("error = %v, want ErrSurveyNotFound", err)
	}
}

func TestQuestionnaireNoQualifications(t *testing.T) {
	t.Parallel()

	svc, _, _ := fixture()
	surveys := svc.surveys.(*fakeSurveys)
	surveys.surveys["200"] = survey.Survey{SurveyID: "200"}

	if _, err := svc.Questionnaire(context.Background(), "200"); !errors.Is(err, ErrNoQualifications) {
		t.Fatalf("error = %v, want ErrNoQualifications", err)
	}
}

func TestQuestionnaireRejectsInvalidGeneratorOutput(t *testing.T) {
	t.Parallel()

	svc, generator, cache := fixture()
	generator.output = []byte("not json at all")

	if _, err := svc.Questionnaire(context.Background(), "100"); err == nil {
		t.Fatal("invalid JSON must be rejected")
	}
	if len(cache.entries) != 0 {
		t.Fatal("invalid output must not be cached")
	}
}
