package ingest

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
)

// ItemError records one event's failure without aborting the batch.
type ItemError struct {
	Index    int       `json:"index"`
	SurveyID survey.ID `json:"survey_id"`
	Invalid  bool      `json:"invalid"`
	Message  string    `json:"message"`
}

// BatchResult accounts for every event individually: non-no-op outcomes
// in Processed, failures in Errors, the rest were no-ops or drops.
type BatchResult struct {
	Received  int           `json:"received"`
	Processed []EventResult `json:"processed"`
	Errors    []ItemError   `json:"errors"`
}

// ProcessBatch fans the batch out through a bounded-concurrency executor.
// Batch semantics are per-item partial success: one event exhausting its
// retries fails only its own slot.
func (s *Service) ProcessBatch(ctx context.Context, events []survey.InboundEvent) (BatchResult, error) {
	if ctx == nil {
		return BatchResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, errs.Wrap(err, "check context")
	}

	results := make([]*EventResult, len(events))
	failures := make([]error, len(events))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.Concurrency)

	for i, event := range events {
		group.Go(func() error {
			results[i], failures[i] = s.ProcessEvent(groupCtx, event)
			return nil
		})
	}
	// Workers never return errors; failures land in their own slot.
	_ = group.Wait()

	out := BatchResult{Received: len(events)}
	for i, result := range results {
		if failures[i] != nil {
			out.Errors = append(out.Errors, ItemError{
				Index:    i,
				SurveyID: events[i].SurveyID,
				Invalid:  errors.Is(failures[i], survey.ErrInvalidEvent),
				Message:  failures[i].Error(),
			})
			continue
		}
		if result != nil {
			out.Processed = append(out.Processed, *result)
		}
	}

	logging.Info(ctx, "survey batch processed",
		slog.Int("received", out.Received),
		slog.Int("processed", len(out.Processed)),
		slog.Int("failed", len(out.Errors)),
	)
	return out, nil
}
