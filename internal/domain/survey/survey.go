package survey

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Lifecycle tags carried on the message_reason field of inbound events and
// persisted on the survey record.
const (
	ReasonNew         = "new"
	ReasonUpdated     = "updated"
	ReasonReactivated = "reactivated"
	ReasonDeactivated = "deactivated"
)

// LiveLinkUnavailable is the sentinel the link provisioner returns when a
// survey has no usable entry link.
const LiveLinkUnavailable = "Not"

func ValidReason(reason string) bool {
	switch reason {
	case ReasonNew, ReasonUpdated, ReasonReactivated, ReasonDeactivated:
		return true
	}
	return false
}

// ID is an externally assigned survey identifier. The upstream feed sends
// it as a JSON number or a string depending on the webhook variant.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Revenue is the revenue_per_interview value object. The feed usually
// sends {"value": 10.5, "currency": "USD"} but older variants send a bare
// number.
type Revenue struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency,omitempty"`
}

func (r *Revenue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*r = Revenue{}
		return nil
	}

	if !strings.HasPrefix(raw, "{") {
		value, err := strconv.ParseFloat(strings.Trim(raw, `"`), 64)
		if err != nil {
			return err
		}
		*r = Revenue{Value: value}
		return nil
	}

	type alias Revenue
	var parsed alias
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	*r = Revenue(parsed)
	return nil
}

// Survey is the persisted view of a demand-side survey.
type Survey struct {
	SurveyID             ID
	Name                 string
	AccountName          string
	CountryLanguage      string
	Country              string
	Industry             string
	StudyType            string
	BidLengthOfInterview int
	BidIncidence         float64
	CollectsPII          bool
	GroupIDs             []int64
	IsLive               bool
	QuotaCalcType        string
	RevenuePerInterview  Revenue
	LiveLink             string
	TestLink             string
	MessageReason        string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Quotas         []Quota
	Qualifications []Qualification
}

// Discoverable reports whether the survey may be surfaced to supply
// partners at all. CPI and caller filters are applied on top of this.
func (s Survey) Discoverable() bool {
	if !s.IsLive || s.MessageReason == ReasonDeactivated {
		return false
	}
	return s.LiveLink != "" && s.LiveLink != LiveLinkUnavailable
}

// Quota belongs to exactly one survey. The quota set is replaced as a unit
// whenever an update supplies one.
type Quota struct {
	QuotaID     string
	SurveyID    ID
	Name        string
	TargetCount int
	QuotaCPI    float64
}

// Qualification belongs to exactly one survey, replaced as a unit like
// quotas. QuestionID keys into the qualification catalog at read time.
type Qualification struct {
	SurveyID        ID
	QuestionID      int64
	LogicalOperator string
	Precodes        []string
}

// Links are the entry URLs obtained from the provisioning service. Empty
// means unavailable.
type Links struct {
	LiveLink string
	TestLink string
}

// Usable reports whether the live link can actually route respondents.
func (l Links) Usable() bool {
	return l.LiveLink != "" && l.LiveLink != LiveLinkUnavailable
}
