package supply

import "strings"

// ProductParams describes the delivery contract a supply partner registers
// for survey feed pushes: where to call back, how large a payload may get,
// and which opportunities the partner wants to receive.
type ProductParams struct {
	Callback              string        `json:"callback"`
	IncludeQuotas         bool          `json:"include_quotas"`
	PayloadMaxSizeMB      int           `json:"payload_max_size_mb"`
	PayloadMaxSurveyCount int           `json:"payload_max_survey_count"`
	SendIntervalSeconds   int           `json:"send_interval_seconds"`
	Opportunities         []Opportunity `json:"opportunities"`
}

type Opportunity struct {
	CountryLanguage     InFilter  `json:"country_language"`
	StudyType           EqFilter  `json:"study_type"`
	RevenuePerInterview GteFilter `json:"revenue_per_interview"`
	BidIncidence        GteFilter `json:"bid_incidence"`
	CollectsPII         bool      `json:"collects_pii"`
}

type InFilter struct {
	In []string `json:"in"`
}

type EqFilter struct {
	Eq string `json:"eq"`
}

type GteFilter struct {
	Gte float64 `json:"gte"`
}

// ProductRequest carries the caller-supplied overrides; zero values fall
// back to the defaults below.
type ProductRequest struct {
	Callback              string
	IncludeQuotas         *bool
	PayloadMaxSizeMB      int
	PayloadMaxSurveyCount int
	SendIntervalSeconds   int
	Opportunities         []OpportunityRequest
}

type OpportunityRequest struct {
	CountryLanguage     string
	StudyType           string
	RevenuePerInterview *float64
	BidIncidence        *float64
	CollectsPII         *bool
}

const (
	defaultCallbackURL        = "https://www.callback.com/url"
	defaultPayloadMaxSizeMB   = 16
	defaultPayloadMaxSurveys  = 5000
	defaultSendIntervalSecs   = 15
	defaultOpportunityStudy   = "adhoc"
	defaultOpportunityRevenue = 1
	defaultOpportunityBidIR   = 50
)

func defaultOpportunity() Opportunity {
	return Opportunity{
		CountryLanguage:     InFilter{In: []string{"eng_us", "eng_gb"}},
		StudyType:           EqFilter{Eq: defaultOpportunityStudy},
		RevenuePerInterview: GteFilter{Gte: defaultOpportunityRevenue},
		BidIncidence:        GteFilter{Gte: defaultOpportunityBidIR},
		CollectsPII:         false,
	}
}

// ProductCallbackParams resolves a partner's product registration request
// against the platform defaults.
func (s *Service) ProductCallbackParams(req ProductRequest) ProductParams {
	params := ProductParams{
		Callback:              defaultCallbackURL,
		IncludeQuotas:         true,
		PayloadMaxSizeMB:      defaultPayloadMaxSizeMB,
		PayloadMaxSurveyCount: defaultPayloadMaxSurveys,
		SendIntervalSeconds:   defaultSendIntervalSecs,
	}
	if req.Callback != "" {
		params.Callback = req.Callback
	}
	if req.IncludeQuotas != nil {
		params.IncludeQuotas = *req.IncludeQuotas
	}
	if req.PayloadMaxSizeMB > 0 {
		params.PayloadMaxSizeMB = req.PayloadMaxSizeMB
	}
	if req.PayloadMaxSurveyCount > 0 {
		params.PayloadMaxSurveyCount = req.PayloadMaxSurveyCount
	}
	if req.SendIntervalSeconds > 0 {
		params.SendIntervalSeconds = req.SendIntervalSeconds
	}

	if len(req.Opportunities) == 0 {
		params.Opportunities = []Opportunity{defaultOpportunity()}
		return params
	}

	params.Opportunities = make([]Opportunity, 0, len(req.Opportunities))
	for _, op := range req.Opportunities {
		resolved := defaultOpportunity()
		if op.CountryLanguage != "" {
			resolved.CountryLanguage = InFilter{In: strings.Split(op.CountryLanguage, ",")}
		}
		if op.StudyType != "" {
			resolved.StudyType = EqFilter{Eq: op.StudyType}
		}
		if op.RevenuePerInterview != nil {
			resolved.RevenuePerInterview = GteFilter{Gte: *op.RevenuePerInterview}
		}
		if op.BidIncidence != nil {
			resolved.BidIncidence = GteFilter{Gte: *op.BidIncidence}
		}
		if op.CollectsPII != nil {
			resolved.CollectsPII = *op.CollectsPII
		}
		params.Opportunities = append(params.Opportunities, resolved)
	}
	return params
}
