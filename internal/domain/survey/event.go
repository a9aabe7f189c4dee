package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidEvent marks a malformed inbound event. Batch processing
// reports it per item instead of aborting the whole request.
var ErrInvalidEvent = errors.New("invalid survey event")

// InboundEvent is the allow-listed shape of one webhook item. Fields the
// demand partner sends but we never persist are intentionally missing so
// they cannot leak into storage.
type InboundEvent struct {
	SurveyID             ID      `json:"survey_id"`
	SurveyName           string  `json:"survey_name"`
	AccountName          string  `json:"account_name"`
	CountryLanguage      string  `json:"country_language"`
	Country              string  `json:"country"`
	Industry             string  `json:"industry"`
	StudyType            string  `json:"study_type"`
	BidLengthOfInterview int     `json:"bid_length_of_interview"`
	BidIncidence         float64 `json:"bid_incidence"`
	CollectsPII          bool    `json:"collects_pii"`
	SurveyGroupIDs       []int64 `json:"survey_group_ids"`
	IsLive               bool    `json:"is_live"`
	QuotaCalcType        string  `json:"survey_quota_calc_type"`
	MessageReason        string  `json:"message_reason"`
	RevenuePerInterview  Revenue `json:"revenue_per_interview"`

	Quotas         Optional[[]QuotaInput]         `json:"survey_quotas"`
	Qualifications Optional[[]QualificationInput] `json:"survey_qualifications"`
}

type QuotaInput struct {
	QuotaID     string  `json:"survey_quota_id"`
	Name        string  `json:"name"`
	TargetCount int     `json:"number_of_respondents"`
	QuotaCPI    float64 `json:"quota_cpi"`
}

type QualificationInput struct {
	QuestionID      int64    `json:"question_id"`
	LogicalOperator string   `json:"logical_operator"`
	Precodes        Precodes `json:"precodes"`
}

// Precodes accepts the mixed string/number arrays the feed produces and
// normalizes everything to strings.
type Precodes []string

func (p *Precodes) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*p = nil
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(string(item))
		if strings.HasPrefix(trimmed, `"`) {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
			continue
		}

		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return err
		}
		out = append(out, n.String())
	}
	*p = out
	return nil
}

// Validate checks the minimal contract an event must satisfy before the
// reconciler sees it.
func (e InboundEvent) Validate() error {
	if strings.TrimSpace(e.SurveyID.String()) == "" {
		return fmt.Errorf("%w: survey_id is required", ErrInvalidEvent)
	}
	if !ValidReason(e.MessageReason) {
		return fmt.Errorf("%w: unknown message_reason %q", ErrInvalidEvent, e.MessageReason)
	}
	if e.BidLengthOfInterview < 0 {
		return fmt.Errorf("%w: bid_length_of_interview must not be negative", ErrInvalidEvent)
	}
	if e.BidIncidence < 0 || e.BidIncidence > 100 {
		return fmt.Errorf("%w: bid_incidence must be within [0, 100]", ErrInvalidEvent)
	}
	return nil
}

// ToSurvey maps the allow-listed event fields to a survey record. Link
// fields and quota/qualification sets are handled separately by the
// reconciler.
func (e InboundEvent) ToSurvey() Survey {
	return Survey{
		SurveyID:             e.SurveyID,
		Name:                 e.SurveyName,
		AccountName:          e.AccountName,
		CountryLanguage:      e.CountryLanguage,
		Country:              e.Country,
		Industry:             e.Industry,
		StudyType:            e.StudyType,
		BidLengthOfInterview: e.BidLengthOfInterview,
		BidIncidence:         e.BidIncidence,
		CollectsPII:          e.CollectsPII,
		GroupIDs:             e.SurveyGroupIDs,
		IsLive:               e.IsLive,
		QuotaCalcType:        e.QuotaCalcType,
		RevenuePerInterview:  e.RevenuePerInterview,
		MessageReason:        e.MessageReason,
	}
}

// QuotaSet materializes the supplied quota inputs for this event's survey.
func (e InboundEvent) QuotaSet() []Quota {
	inputs := e.Quotas.Value()
	out := make([]Quota, 0, len(inputs))
	for i, in := range inputs {
		quotaID := strings.TrimSpace(in.QuotaID)
		if quotaID == "" {
			quotaID = e.SurveyID.String() + "-" + strconv.Itoa(i+1)
		}
		out = append(out, Quota{
			QuotaID:     quotaID,
			SurveyID:    e.SurveyID,
			Name:        in.Name,
			TargetCount: in.TargetCount,
			QuotaCPI:    in.QuotaCPI,
		})
	}
	return out
}

// QualificationSet materializes the supplied qualification inputs.
func (e InboundEvent) QualificationSet() []Qualification {
	inputs := e.Qualifications.Value()
	out := make([]Qualification, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, Qualification{
			SurveyID:        e.SurveyID,
			QuestionID:      in.QuestionID,
			LogicalOperator: in.LogicalOperator,
			Precodes:        in.Precodes,
		})
	}
	return out
}
