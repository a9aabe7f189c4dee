package survey

import (
	"errors"
	"math"
)

// ErrNoRateEntry means a tiered partner's rate card has no entry covering
// the survey's IR/LOI. The survey is dropped from that partner's feed.
var ErrNoRateEntry = errors.New("no rate entry for survey ir/loi")

// ErrMarginExhausted means the carded rate leaves no positive margin
// against the survey's revenue. The survey is dropped, not repriced.
var ErrMarginExhausted = errors.New("rate leaves no margin against revenue")

// RateCard is a named tariff owned by a supply partner.
type RateCard struct {
	RateCardID string
	Name       string
	Entries    []RateEntry
}

// RateEntry maps an (IR range, LOI range) cell to a flat rate.
type RateEntry struct {
	RateCardID string
	IRMin      float64
	IRMax      float64
	LOIMin     int
	LOIMax     int
	Rate       float64
}

func (e RateEntry) Matches(ir float64, loi int) bool {
	return ir >= e.IRMin && ir <= e.IRMax && loi >= e.LOIMin && loi <= e.LOIMax
}

// FindRate returns the first entry covering (ir, loi).
func FindRate(entries []RateEntry, ir float64, loi int) (RateEntry, error) {
	for _, entry := range entries {
		if entry.Matches(ir, loi) {
			return entry, nil
		}
	}
	return RateEntry{}, ErrNoRateEntry
}

// DefaultCPI applies the flat revenue share and rounds to one decimal.
func DefaultCPI(revenue float64, margin float64) float64 {
	return math.Round(revenue*margin*10) / 10
}

// TieredCPI prices a survey off a partner rate card. The carded rate must
// stay strictly below the survey revenue or the partner would field the
// survey at a loss.
func TieredCPI(entries []RateEntry, ir float64, loi int, revenue float64) (float64, error) {
	entry, err := FindRate(entries, ir, loi)
	if err != nil {
		return 0, err
	}
	if entry.Rate >= revenue {
		return 0, ErrMarginExhausted
	}
	return entry.Rate, nil
}

// CPIFilters are the caller-supplied bounds applied after pricing. Nil
// means the bound was not requested.
type CPIFilters struct {
	GreaterThan *float64
	LowerThan   *float64
	Exact       *float64
}

func (f CPIFilters) Accept(cpi float64) bool {
	if f.GreaterThan != nil && cpi <= *f.GreaterThan {
		return false
	}
	if f.LowerThan != nil && cpi >= *f.LowerThan {
		return false
	}
	if f.Exact != nil && cpi != *f.Exact {
		return false
	}
	return true
}
