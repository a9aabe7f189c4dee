package ports

import (
	"context"
	"errors"

	"surveybridge/internal/domain/survey"
)

var (
	ErrSurveyNotFound  = errors.New("survey not found")
	ErrDuplicateSurvey = errors.New("survey already exists")

	// ErrTransientConflict classifies lock/deadlock-class store failures.
	// Adapters wrap the driver error with this sentinel so callers can
	// retry without knowing storage-engine internals.
	ErrTransientConflict = errors.New("transient store conflict")
)

// IsTransientConflict reports whether err is retryable under the ingest
// retry policy.
func IsTransientConflict(err error) bool {
	return errors.Is(err, ErrTransientConflict)
}

// SurveyFilter narrows discovery reads. Nil members mean "no constraint".
type SurveyFilter struct {
	LiveOnly        bool
	LOI             *int
	IR              *float64
	Country         string
	CountryLanguage string
	Limit           int
}

// SurveyRepository is the persistence gateway over surveys, quotas and
// qualifications. Mutations observe a transaction carried in context by
// the unit of work.
type SurveyRepository interface {
	// FindSurvey returns ErrSurveyNotFound when survey_id is unknown.
	FindSurvey(ctx context.Context, surveyID survey.ID) (survey.Survey, error)
	ListLiveSurveys(ctx context.Context, filter SurveyFilter) ([]survey.Survey, error)

	// CreateSurvey returns ErrDuplicateSurvey when survey_id is taken.
	CreateSurvey(ctx context.Context, s survey.Survey) error
	// UpdateSurvey writes the allow-listed mutable fields and preserves
	// stored link fields.
	UpdateSurvey(ctx context.Context, s survey.Survey) error
	SetStatus(ctx context.Context, surveyID survey.ID, messageReason string) error

	ReplaceQuotas(ctx context.Context, surveyID survey.ID, quotas []survey.Quota) error
	ReplaceQualifications(ctx context.Context, surveyID survey.ID, qualifications []survey.Qualification) error

	ListQuotas(ctx context.Context, surveyID survey.ID) ([]survey.Quota, error)
	ListQualifications(ctx context.Context, surveyID survey.ID) ([]survey.Qualification, error)
}
