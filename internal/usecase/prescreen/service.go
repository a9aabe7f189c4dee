package prescreen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

var ErrNoQualifications = errors.New("survey has no qualifications to prescreen")

const defaultCacheTTL = 24 * time.Hour

type Config struct {
	CacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	return c
}

// Service turns a survey's stored qualifications into a generated
// prescreening questionnaire, cached per survey.
type Service struct {
	surveys   ports.SurveyRepository
	catalog   ports.QualificationCatalog
	cache     ports.Cache
	generator ports.PrescreenGenerator
	cfg       Config
}

func NewService(
	surveys ports.SurveyRepository,
	catalog ports.QualificationCatalog,
	cache ports.Cache,
	generator ports.PrescreenGenerator,
	cfg Config,
) *Service {
	return &Service{
		surveys:   surveys,
		catalog:   catalog,
		cache:     cache,
		generator: generator,
		cfg:       cfg.withDefaults(),
	}
}

// Questionnaire retrieves the cached prescreen for the survey or generates
// and caches a fresh one.
func (s *Service) Questionnaire(ctx context.Context, surveyID survey.ID) (json.RawMessage, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	key := cacheKey(surveyID)
	if cached, found, err := s.cache.Get(ctx, key); err != nil {
		logging.Warn(ctx, "prescreen cache read failed", slog.Any("err", errs.Loggable(err)))
	} else if found {
		return json.RawMessage(cached), nil
	}

	if _, err := s.surveys.FindSurvey(ctx, surveyID); err != nil {
		return nil, err
	}

	qualifications, err := s.surveys.ListQualifications(ctx, surveyID)
	if err != nil {
		return nil, errs.Wrap(err, "list qualifications")
	}
	if len(qualifications) == 0 {
		return nil, ErrNoQualifications
	}

	prompt := s.buildPrompt(ctx, qualifications)
	generated, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, errs.Wrap(err, "generate prescreen")
	}
	if !json.Valid(generated) {
		return nil, errors.New("generator returned invalid JSON")
	}

	if err := s.cache.Set(ctx, key, string(generated), s.cfg.CacheTTL); err != nil {
		logging.Warn(ctx, "prescreen cache write failed", slog.Any("err", errs.Loggable(err)))
	}
	return json.RawMessage(generated), nil
}

// buildPrompt renders the stored qualifications as question/answer pairs.
// Catalog metadata supplies the question text; unknown question ids fall
// back to the raw id.
func (s *Service) buildPrompt(ctx context.Context, qualifications []survey.Qualification) string {
	var b strings.Builder
	b.WriteString("Please answer the following questions:\n")
	for _, q := range qualifications {
		label := strconv.FormatInt(q.QuestionID, 10)
		if s.catalog != nil {
			if question, err := s.catalog.FindQuestion(ctx, q.QuestionID); err == nil && question.Question != "" {
				label = question.Question
			}
		}
		fmt.Fprintf(&b, "Q: %s, A: %s\n", label, strings.Join(q.Precodes, ", "))
	}
	return b.String()
}

func cacheKey(surveyID survey.ID) string {
	return "prescreen:" + surveyID.String()
}
