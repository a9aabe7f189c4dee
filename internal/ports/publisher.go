package ports

import (
	"context"
	"time"

	"surveybridge/internal/domain/survey"
)

// LifecycleEvent notifies downstream consumers that a survey mutated.
type LifecycleEvent struct {
	SurveyID      survey.ID `json:"survey_id"`
	MessageReason string    `json:"message_reason"`
	IsLive        bool      `json:"is_live"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher fans lifecycle events out to a message bus. Publish
// failures are logged, never propagated into the ingestion result.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}
