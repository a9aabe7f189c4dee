package supply

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

// Respondent completion statuses reported back by the demand side.
const (
	StatusComplete  = "complete"
	StatusTerminate = "terminate"
	StatusOverQuota = "overquota"
	StatusQuality   = "quality"
)

var (
	ErrSurveyNotRoutable = errors.New("survey is not routable")
	ErrInvalidSession    = errors.New("invalid respondent session token")
)

type RedirectInput struct {
	SurveyID     survey.ID
	PartnerID    int64
	RespondentID string
	Test         bool
}

// RedirectSession is a minted respondent entry: the target URL carries the
// session id and a token the completion callback must present back.
type RedirectSession struct {
	SessionID string
	Token     string
	TargetURL string
}

type sessionClaims struct {
	SurveyID     string `json:"sid"`
	SessionID    string `json:"ses"`
	PartnerID    int64  `json:"pid"`
	RespondentID string `json:"rid"`
	jwt.RegisteredClaims
}

// StartRedirect mints a respondent session and resolves the survey entry
// URL with the partner/session/token placeholders substituted.
func (s *Service) StartRedirect(ctx context.Context, input RedirectInput) (RedirectSession, error) {
	if ctx == nil {
		return RedirectSession{}, errors.New("context is required")
	}

	stored, err := s.surveys.FindSurvey(ctx, input.SurveyID)
	if err != nil {
		if errors.Is(err, ports.ErrSurveyNotFound) {
			return RedirectSession{}, ErrSurveyNotRoutable
		}
		return RedirectSession{}, errs.Wrap(err, "find survey for redirect")
	}

	entry := stored.LiveLink
	if input.Test {
		entry = stored.TestLink
	} else if !stored.Discoverable() {
		return RedirectSession{}, ErrSurveyNotRoutable
	}
	if entry == "" || entry == survey.LiveLinkUnavailable {
		return RedirectSession{}, ErrSurveyNotRoutable
	}

	partner, err := s.partners.FindByID(ctx, input.PartnerID)
	if err != nil {
		if errors.Is(err, ports.ErrPartnerNotFound) {
			return RedirectSession{}, ErrUnauthorized
		}
		return RedirectSession{}, errs.Wrap(err, "find partner for redirect")
	}

	sessionID := uuid.NewString()
	token, err := s.signSession(partner, stored.SurveyID, sessionID, input.RespondentID)
	if err != nil {
		return RedirectSession{}, err
	}

	target := strings.NewReplacer(
		"[%SupplyID%]", strconv.FormatInt(partner.PartnerID, 10),
		"[%PNID%]", input.RespondentID,
		"[%AID%]", input.RespondentID,
		"[%SessionID%]", sessionID,
		"[%TID%]", token,
	).Replace(entry)

	return RedirectSession{
		SessionID: sessionID,
		Token:     token,
		TargetURL: target,
	}, nil
}

type CompleteInput struct {
	SurveyID survey.ID
	Token    string
	Status   string
}

// CompleteSession verifies the session token and returns the partner URL
// the respondent should land on for the reported status.
func (s *Service) CompleteSession(ctx context.Context, input CompleteInput) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}

	var partner ports.SupplyPartner
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(input.Token, claims, func(token *jwt.Token) (any, error) {
		parsed, ok := token.Claims.(*sessionClaims)
		if !ok || parsed.PartnerID == 0 {
			return nil, ErrInvalidSession
		}

		found, findErr := s.partners.FindByID(ctx, parsed.PartnerID)
		if findErr != nil {
			return nil, findErr
		}
		partner = found
		return []byte(found.HashingKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSession, err.Error())
	}

	if claims.SurveyID != input.SurveyID.String() {
		return "", fmt.Errorf("%w: token issued for another survey", ErrInvalidSession)
	}

	var landing string
	switch input.Status {
	case StatusComplete:
		landing = partner.CompleteURL
	case StatusTerminate:
		landing = partner.TerminateURL
	case StatusOverQuota:
		landing = partner.OverQuotaURL
	case StatusQuality:
		landing = partner.QualityURL
	default:
		return "", fmt.Errorf("unknown completion status %q", input.Status)
	}
	if landing == "" {
		return "", fmt.Errorf("partner %d has no landing url for status %q", partner.PartnerID, input.Status)
	}

	return strings.NewReplacer(
		"[%SessionID%]", claims.SessionID,
		"[%PNID%]", claims.RespondentID,
	).Replace(landing), nil
}

func (s *Service) signSession(partner ports.SupplyPartner, surveyID survey.ID, sessionID string, respondentID string) (string, error) {
	if partner.HashingKey == "" {
		return "", fmt.Errorf("partner %d has no hashing key configured", partner.PartnerID)
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SurveyID:     surveyID.String(),
		SessionID:    sessionID,
		PartnerID:    partner.PartnerID,
		RespondentID: respondentID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	})

	signed, err := token.SignedString([]byte(partner.HashingKey))
	if err != nil {
		return "", errs.Wrap(err, "sign session token")
	}
	return signed, nil
}
