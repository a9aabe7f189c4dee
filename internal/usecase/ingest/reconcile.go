package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

// Actions taken by the reconciler for one event.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionStatusChanged = "status_changed"
)

// EventResult is the surfaced outcome of one reconciled event. No-op and
// dropped events produce a nil result, mirroring how callers filter them
// out of the batch response.
type EventResult struct {
	SurveyID survey.ID     `json:"survey_id"`
	Action   string        `json:"action"`
	Survey   survey.Survey `json:"survey"`
}

// ProcessEvent applies one inbound event. The decision is a function of
// (survey exists x message_reason); every mutating branch runs under the
// retry policy, and multi-record branches share one transaction so a
// crash cannot leave a survey referencing a half-replaced quota set.
func (s *Service) ProcessEvent(ctx context.Context, event survey.InboundEvent) (*EventResult, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("survey_id", event.SurveyID.String()),
		slog.String("message_reason", event.MessageReason),
	)

	existing, err := s.repo.FindSurvey(ctx, event.SurveyID)
	exists := true
	if err != nil {
		if !errors.Is(err, ports.ErrSurveyNotFound) {
			return nil, errs.Wrap(err, "find survey")
		}
		exists = false
	}

	switch {
	case exists && (event.MessageReason == survey.ReasonReactivated || event.MessageReason == survey.ReasonDeactivated):
		return s.changeStatus(logCtx, existing, event)
	case exists && event.MessageReason == survey.ReasonUpdated:
		return s.updateExisting(logCtx, event)
	case !exists && event.MessageReason == survey.ReasonNew:
		return s.createNew(logCtx, event)
	case exists && event.MessageReason == survey.ReasonNew:
		// Already onboarded; the feed re-announces surveys occasionally.
		logging.Info(logCtx, "survey already exists, ignoring new event")
		return nil, nil
	default:
		logging.Info(logCtx, "no action for survey event")
		return nil, nil
	}
}

func (s *Service) changeStatus(ctx context.Context, existing survey.Survey, event survey.InboundEvent) (*EventResult, error) {
	err := s.runWithRetry(ctx, func(ctx context.Context) error {
		return s.repo.SetStatus(ctx, event.SurveyID, event.MessageReason)
	})
	if err != nil {
		return nil, errs.Wrap(err, "set survey status")
	}

	existing.MessageReason = event.MessageReason
	s.publish(ctx, existing)
	logging.Info(ctx, "survey status changed")

	return &EventResult{
		SurveyID: event.SurveyID,
		Action:   ActionStatusChanged,
		Survey:   existing,
	}, nil
}

func (s *Service) updateExisting(ctx context.Context, event survey.InboundEvent) (*EventResult, error) {
	updated := event.ToSurvey()

	err := s.runWithRetry(ctx, func(ctx context.Context) error {
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.repo.UpdateSurvey(txCtx, updated); err != nil {
				return err
			}
			// Absent quota/qualification fields leave stored rows alone;
			// supplied ones, even empty, replace the whole set.
			if event.Quotas.Provided() {
				if err := s.repo.ReplaceQuotas(txCtx, event.SurveyID, event.QuotaSet()); err != nil {
					return err
				}
			}
			if event.Qualifications.Provided() {
				if err := s.repo.ReplaceQualifications(txCtx, event.SurveyID, event.QualificationSet()); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, errs.Wrap(err, "update survey")
	}

	stored, err := s.repo.FindSurvey(ctx, event.SurveyID)
	if err != nil {
		return nil, errs.Wrap(err, "reload updated survey")
	}

	s.publish(ctx, stored)
	logging.Info(ctx, "survey updated")

	return &EventResult{
		SurveyID: event.SurveyID,
		Action:   ActionUpdated,
		Survey:   stored,
	}, nil
}

func (s *Service) createNew(ctx context.Context, event survey.InboundEvent) (*EventResult, error) {
	links, err := s.resolver.Resolve(ctx, event.SurveyID)
	if err != nil {
		// Resolution failure is a drop, never a batch failure.
		logging.Warn(ctx, "link resolution failed", slog.Any("err", errs.Loggable(err)))
		return nil, nil
	}
	if !links.Usable() {
		logging.Info(ctx, "skipping survey without usable livelink")
		return nil, nil
	}

	created := event.ToSurvey()
	created.LiveLink = links.LiveLink
	created.TestLink = links.TestLink

	err = s.runWithRetry(ctx, func(ctx context.Context) error {
		return s.uow.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.repo.CreateSurvey(txCtx, created); err != nil {
				return err
			}
			if event.Quotas.Provided() {
				if err := s.repo.ReplaceQuotas(txCtx, event.SurveyID, event.QuotaSet()); err != nil {
					return err
				}
			}
			if event.Qualifications.Provided() {
				if err := s.repo.ReplaceQualifications(txCtx, event.SurveyID, event.QualificationSet()); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		// Two events for the same unseen survey_id can race within a
		// batch; the loser observes the winner's row.
		if errors.Is(err, ports.ErrDuplicateSurvey) {
			logging.Info(ctx, "survey created concurrently, ignoring duplicate")
			return nil, nil
		}
		return nil, errs.Wrap(err, "create survey")
	}

	s.publish(ctx, created)
	logging.Info(ctx, "survey created")

	return &EventResult{
		SurveyID: event.SurveyID,
		Action:   ActionCreated,
		Survey:   created,
	}, nil
}

func (s *Service) publish(ctx context.Context, sv survey.Survey) {
	event := ports.LifecycleEvent{
		SurveyID:      sv.SurveyID,
		MessageReason: sv.MessageReason,
		IsLive:        sv.IsLive,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logging.Warn(ctx, "lifecycle publish failed", slog.Any("err", errs.Loggable(err)))
	}
}
