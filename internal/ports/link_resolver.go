package ports

import (
	"context"

	"surveybridge/internal/domain/survey"
)

// LinkResolver provisions entry links for a newly seen survey. Adapters
// absorb transport failures and return empty links; an unreachable link
// provider must not abort an ingestion batch.
type LinkResolver interface {
	Resolve(ctx context.Context, surveyID survey.ID) (survey.Links, error)
}
