package supply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

// countryLanguageByCode maps a country filter to the feed's
// country_language values.
var countryLanguageByCode = map[string]string{
	"US": "eng_us",
	"IN": "eng_in",
	"GB": "eng_gb",
}

// ListQuery carries the discovery filters. RawQuery is the caller's full
// query string and keys the response cache together with the partner.
type ListQuery struct {
	Limit                 int
	LOI                   *int
	IR                    *float64
	Country               string
	CPI                   survey.CPIFilters
	IncludeQuotas         bool
	IncludeQualifications bool
	RawQuery              string
}

type QuotaView struct {
	QuotaID     string `json:"survey_quota_id"`
	Name        string `json:"name"`
	TargetCount int    `json:"number_of_respondents"`
}

type QualificationView struct {
	QuestionID      string   `json:"question_id"`
	Name            string   `json:"name,omitempty"`
	Question        string   `json:"question,omitempty"`
	LogicalOperator string   `json:"logical_operator"`
	Precodes        []string `json:"precodes"`
}

// SurveyView is the partner-facing projection. Revenue and account fields
// never leave the service; livelink/testlink are replaced with redirect
// URLs through this platform.
type SurveyView struct {
	SurveyID             survey.ID           `json:"survey_id"`
	CountryLanguage      string              `json:"country_language"`
	Country              string              `json:"country,omitempty"`
	Industry             string              `json:"industry"`
	StudyType            string              `json:"study_type"`
	BidLengthOfInterview int                 `json:"bid_length_of_interview"`
	BidIncidence         float64             `json:"bid_incidence"`
	CollectsPII          bool                `json:"collects_pii"`
	IsLive               bool                `json:"is_live"`
	MessageReason        string              `json:"message_reason"`
	CPI                  float64             `json:"cpi"`
	LiveLink             string              `json:"livelink"`
	TestLink             string              `json:"testlink"`
	Quotas               []QuotaView         `json:"survey_quotas,omitempty"`
	Qualifications       []QualificationView `json:"survey_qualifications,omitempty"`
}

// ListLiveSurveys returns the priced, filtered feed for one partner.
func (s *Service) ListLiveSurveys(ctx context.Context, apiKey string, query ListQuery) ([]SurveyView, error) {
	partner, err := s.ResolvePartner(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "supply.discovery"),
		slog.Int64("partner_id", partner.PartnerID),
	)

	cacheKey := fmt.Sprintf("livesurveys:%d:%s", partner.PartnerID, query.RawQuery)
	if cached, found, cacheErr := s.cache.Get(ctx, cacheKey); cacheErr == nil && found {
		var views []SurveyView
		if err := json.Unmarshal([]byte(cached), &views); err == nil {
			return views, nil
		}
		// Fall through and recompute on a corrupt cache entry.
		_ = s.cache.Delete(ctx, cacheKey)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := ports.SurveyFilter{
		LiveOnly: true,
		LOI:      query.LOI,
		IR:       query.IR,
		Country:  query.Country,
		Limit:    limit,
	}
	if language, ok := countryLanguageByCode[query.Country]; ok {
		filter.CountryLanguage = language
	}

	candidates, err := s.surveys.ListLiveSurveys(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(err, "list live surveys")
	}

	var rateEntries []survey.RateEntry
	if partner.UsesRateCard {
		rateEntries, err = s.rateCards.ListEntries(ctx, partner.RateCardID)
		if err != nil {
			return nil, errs.Wrap(err, "load partner rate card")
		}
	}

	views := make([]SurveyView, 0, len(candidates))
	for _, candidate := range candidates {
		if !candidate.Discoverable() {
			continue
		}

		cpi, priced := s.price(partner, rateEntries, candidate)
		if !priced || !query.CPI.Accept(cpi) {
			continue
		}

		view := SurveyView{
			SurveyID:             candidate.SurveyID,
			CountryLanguage:      candidate.CountryLanguage,
			Country:              candidate.Country,
			Industry:             candidate.Industry,
			StudyType:            candidate.StudyType,
			BidLengthOfInterview: candidate.BidLengthOfInterview,
			BidIncidence:         candidate.BidIncidence,
			CollectsPII:          candidate.CollectsPII,
			IsLive:               candidate.IsLive,
			MessageReason:        candidate.MessageReason,
			CPI:                  cpi,
			LiveLink:             s.entryURL(candidate.SurveyID, false),
			TestLink:             s.entryURL(candidate.SurveyID, true),
		}

		if query.IncludeQuotas {
			view.Quotas, err = s.quotaViews(ctx, candidate.SurveyID)
			if err != nil {
				return nil, err
			}
		}
		if query.IncludeQualifications {
			view.Qualifications, err = s.qualificationViews(ctx, candidate.SurveyID)
			if err != nil {
				return nil, err
			}
		}

		views = append(views, view)
	}

	if encoded, err := json.Marshal(views); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(encoded), s.cfg.CacheTTL); err != nil {
			logging.Warn(logCtx, "discovery cache write failed", slog.Any("err", errs.Loggable(err)))
		}
	}

	return views, nil
}

// price computes the partner's effective CPI. The bool is false when the
// survey must be dropped for this partner.
func (s *Service) price(partner ports.SupplyPartner, entries []survey.RateEntry, candidate survey.Survey) (float64, bool) {
	revenue := candidate.RevenuePerInterview.Value

	if !partner.UsesRateCard {
		return survey.DefaultCPI(revenue, s.cfg.DefaultMargin), true
	}

	cpi, err := survey.TieredCPI(entries, candidate.BidIncidence, candidate.BidLengthOfInterview, revenue)
	if err != nil {
		// No covering rate entry, or no positive margin left.
		return 0, false
	}
	return cpi, true
}

func (s *Service) quotaViews(ctx context.Context, surveyID survey.ID) ([]QuotaView, error) {
	quotas, err := s.surveys.ListQuotas(ctx, surveyID)
	if err != nil {
		return nil, errs.Wrap(err, "list survey quotas")
	}

	views := make([]QuotaView, 0, len(quotas))
	for _, quota := range quotas {
		// Per-quota CPI is internal pricing detail and stays hidden.
		views = append(views, QuotaView{
			QuotaID:     quota.QuotaID,
			Name:        quota.Name,
			TargetCount: quota.TargetCount,
		})
	}
	return views, nil
}

func (s *Service) qualificationViews(ctx context.Context, surveyID survey.ID) ([]QualificationView, error) {
	qualifications, err := s.surveys.ListQualifications(ctx, surveyID)
	if err != nil {
		return nil, errs.Wrap(err, "list survey qualifications")
	}

	views := make([]QualificationView, 0, len(qualifications))
	for _, qualification := range qualifications {
		view := QualificationView{
			QuestionID:      strconv.FormatInt(qualification.QuestionID, 10),
			LogicalOperator: qualification.LogicalOperator,
			Precodes:        qualification.Precodes,
		}

		// Catalog misses fall back to the raw question id.
		if question, err := s.catalog.FindQuestion(ctx, qualification.QuestionID); err == nil {
			view.Name = question.Name
			view.Question = question.Question
			if question.PartnerCode != "" {
				view.QuestionID = question.PartnerCode
			}
		} else if !errors.Is(err, ports.ErrQuestionNotFound) {
			return nil, errs.Wrap(err, "lookup catalog question")
		}

		views = append(views, view)
	}
	return views, nil
}

// entryURL routes respondents through this platform's redirect endpoint.
// Placeholders use the partner macro syntax and are substituted by the
// partner's panel system before the respondent clicks through.
func (s *Service) entryURL(surveyID survey.ID, test bool) string {
	base := fmt.Sprintf("%s/%s", s.cfg.RedirectBaseURL, url.PathEscape(surveyID.String()))
	if test {
		return base + "/test?SupplyID=[%SupplyID%]"
	}
	return base + "?SupplyID=[%SupplyID%]&PNID=[%PNID%]&SessionID=[%SessionID%]&TID=[%TID%]"
}
