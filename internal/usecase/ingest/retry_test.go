package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"surveybridge/internal/domain/survey"
	"surveybridge/internal/ports"
)

func TestRetryOnTransientConflict(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.surveys["600"] = survey.Survey{SurveyID: "600", LiveLink: "https://router.example/live", IsLive: true}
	repo.statusErrs = []error{
		fmt.Errorf("%w: database is locked", ports.ErrTransientConflict),
		fmt.Errorf("%w: database is locked", ports.ErrTransientConflict),
	}
	svc := newTestService(repo, &fakeResolver{}, &recordingPublisher{})

	var delays []time.Duration
	svc.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	result, err := svc.ProcessEvent(context.Background(), newEvent("600", survey.ReasonDeactivated))
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}
	if result == nil || result.Action != ActionStatusChanged {
		t.Fatalf("result = %+v", result)
	}

	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.surveys["601"] = survey.Survey{SurveyID: "601", LiveLink: "https://router.example/live", IsLive: true}
	conflict := fmt.Errorf("%w: deadlock detected", ports.ErrTransientConflict)
	repo.statusErrs = []error{conflict, conflict, conflict}
	svc := newTestService(repo, &fakeResolver{}, &recordingPublisher{})

	attempts := 0
	svc.sleep = func(context.Context, time.Duration) error {
		attempts++
		return nil
	}

	_, err := svc.ProcessEvent(context.Background(), newEvent("601", survey.ReasonDeactivated))
	if !ports.IsTransientConflict(err) {
		t.Fatalf("error = %v, want transient conflict", err)
	}
	if attempts != 2 {
		t.Fatalf("sleeps = %d, want 2 (three attempts)", attempts)
	}
}

func TestNoRetryOnPermanentError(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.surveys["602"] = survey.Survey{SurveyID: "602", LiveLink: "https://router.example/live", IsLive: true}
	permanent := errors.New("constraint violation")
	repo.statusErrs = []error{permanent}
	svc := newTestService(repo, &fakeResolver{}, &recordingPublisher{})

	slept := false
	svc.sleep = func(context.Context, time.Duration) error {
		slept = true
		return nil
	}

	_, err := svc.ProcessEvent(context.Background(), newEvent("602", survey.ReasonDeactivated))
	if !errors.Is(err, permanent) {
		t.Fatalf("error = %v, want permanent error", err)
	}
	if slept {
		t.Fatal("permanent error must not be retried")
	}
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.surveys["603"] = survey.Survey{SurveyID: "603", LiveLink: "https://router.example/live", IsLive: true}
	repo.statusErrs = []error{fmt.Errorf("%w: busy", ports.ErrTransientConflict)}
	svc := newTestService(repo, &fakeResolver{}, &recordingPublisher{})
	svc.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := svc.ProcessEvent(context.Background(), newEvent("603", survey.ReasonDeactivated))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
