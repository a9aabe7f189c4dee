package supply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"surveybridge/internal/domain/survey"
	"surveybridge/internal/ports"
)

func redirectFixture() (*Service, *fakeSurveys, *fakePartners) {
	stored := liveSurvey("900", 10)
	stored.LiveLink = "https://router.example/start?sid=[%SessionID%]&pid=[%SupplyID%]&tid=[%TID%]"
	surveys := &fakeSurveys{surveys: []survey.Survey{stored}}
	partners := &fakePartners{partners: []ports.SupplyPartner{{
		PartnerID:    7,
		APIKey:       "key-7",
		HashingKey:   "super-secret",
		CompleteURL:  "https://panel.example/complete?ses=[%SessionID%]",
		TerminateURL: "https://panel.example/terminate?ses=[%SessionID%]",
		OverQuotaURL: "https://panel.example/overquota?ses=[%SessionID%]",
		QualityURL:   "https://panel.example/quality?ses=[%SessionID%]",
	}}}
	svc := newTestSupplyService(surveys, partners, &fakeRateCards{}, &fakeCatalog{}, newMemoryCache())
	return svc, surveys, partners
}

func TestStartRedirectSubstitutesPlaceholders(t *testing.T) {
	t.Parallel()

	svc, _, _ := redirectFixture()

	session, err := svc.StartRedirect(context.Background(), RedirectInput{
		SurveyID:     "900",
		PartnerID:    7,
		RespondentID: "resp-1",
	})
	if err != nil {
		t.Fatalf("StartRedirect() error = %v", err)
	}
	if session.SessionID == "" || session.Token == "" {
		t.Fatalf("session = %+v", session)
	}
	if strings.Contains(session.TargetURL, "[%") {
		t.Fatalf("unsubstituted placeholder in %q", session.TargetURL)
	}
	if !strings.Contains(session.TargetURL, "sid="+session.SessionID) {
		t.Fatalf("session id missing from %q", session.TargetURL)
	}
	if !strings.Contains(session.TargetURL, "pid=7") {
		t.Fatalf("partner id missing from %q", session.TargetURL)
	}
	if !strings.Contains(session.TargetURL, "tid="+session.Token) {
		t.Fatalf("token missing from %q", session.TargetURL)
	}
}

func TestStartRedirectUnroutableSurvey(t *testing.T) {
	t.Parallel()

	svc, surveys, _ := redirectFixture()

	deactivated := liveSurvey("901", 10)
	deactivated.MessageReason = survey.ReasonDeactivated
	surveys.surveys = append(surveys.surveys, deactivated)

	cases := []struct {
		name  string
		input RedirectInput
	}{
		{"unknown survey", RedirectInput{SurveyID: "999", PartnerID: 7}},
		{"deactivated survey", RedirectInput{SurveyID: "901", PartnerID: 7}},
	}
	for _, tc := range cases {
		if _, err := svc.StartRedirect(context.Background(), tc.input); !errors.Is(err, ErrSurveyNotRoutable) {
			t.Fatalf("%s: error = %v, want ErrSurveyNotRoutable", tc.name, err)
		}
	}

	if _, err := svc.StartRedirect(context.Background(), RedirectInput{SurveyID: "900", PartnerID: 99}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown partner error = %v, want ErrUnauthorized", err)
	}
}

func TestCompleteSessionRoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, _ := redirectFixture()

	session, err := svc.StartRedirect(context.Background(), RedirectInput{
		SurveyID:     "900",
		PartnerID:    7,
		RespondentID: "resp-2",
	})
	if err != nil {
		t.Fatalf("StartRedirect() error = %v", err)
	}

	cases := []struct {
		status string
		want   string
	}{
		{StatusComplete, "https://panel.example/complete?ses=" + session.SessionID},
		{StatusTerminate, "https://panel.example/terminate?ses=" + session.SessionID},
		{StatusOverQuota, "https://panel.example/overquota?ses=" + session.SessionID},
		{StatusQuality, "https://panel.example/quality?ses=" + session.SessionID},
	}
	for _, tc := range cases {
		landing, err := svc.CompleteSession(context.Background(), CompleteInput{
			SurveyID: "900",
			Token:    session.Token,
			Status:   tc.status,
		})
		if err != nil {
			t.Fatalf("status %s: %v", tc.status, err)
		}
		if landing != tc.want {
			t.Fatalf("status %s: landing = %q, want %q", tc.status, landing, tc.want)
		}
	}
}

func TestCompleteSessionRejectsBadTokens(t *testing.T) {
	t.Parallel()

	svc, _, _ := redirectFixture()

	session, err := svc.StartRedirect(context.Background(), RedirectInput{SurveyID: "900", PartnerID: 7})
	if err != nil {
		t.Fatalf("StartRedirect() error = %v", err)
	}

	if _, err := svc.CompleteSession(context.Background(), CompleteInput{
		SurveyID: "900",
		Token:    "not-a-jwt",
		Status:   StatusComplete,
	}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("garbage token error = %v, want ErrInvalidSession", err)
	}

	if _, err := svc.CompleteSession(context.Background(), CompleteInput{
		SurveyID: "901",
		Token:    session.Token,
		Status:   StatusComplete,
	}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("cross-survey token error = %v, want ErrInvalidSession", err)
	}

	if _, err := svc.CompleteSession(context.Background(), CompleteInput{
		SurveyID: "900",
		Token:    session.Token,
		Status:   "vanished",
	}); err == nil {
		t.Fatal("unknown status must be rejected")
	}
}
