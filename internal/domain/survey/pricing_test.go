package survey

import (
	"errors"
	"testing"
)

func TestDefaultCPI(t *testing.T) {
	t.Parallel()

	cases := []struct {
		revenue float64
		margin  float64
		want    float64
	}{
		{10, 0.6, 6.0},
		{10.55, 0.6, 6.3},
		{1.04, 0.6, 0.6},
		{0, 0.6, 0},
	}
	for _, tc := range cases {
		if got := DefaultCPI(tc.revenue, tc.margin); got != tc.want {
			t.Fatalf("DefaultCPI(%v, %v) = %v, want %v", tc.revenue, tc.margin, got, tc.want)
		}
	}
}

func testEntries() []RateEntry {
	return []RateEntry{
		{IRMin: 0, IRMax: 10, LOIMin: 0, LOIMax: 10, Rate: 4},
		{IRMin: 10.01, IRMax: 50, LOIMin: 0, LOIMax: 10, Rate: 2.5},
		{IRMin: 0, IRMax: 100, LOIMin: 11, LOIMax: 30, Rate: 3},
	}
}

func TestFindRate(t *testing.T) {
	t.Parallel()

	entry, err := FindRate(testEntries(), 5, 8)
	if err != nil {
		t.Fatalf("FindRate() error = %v", err)
	}
	if entry.Rate != 4 {
		t.Fatalf("rate = %v, want 4", entry.Rate)
	}

	if _, err := FindRate(testEntries(), 60, 45); !errors.Is(err, ErrNoRateEntry) {
		t.Fatalf("uncovered cell error = %v, want ErrNoRateEntry", err)
	}
}

func TestTieredCPIRequiresMargin(t *testing.T) {
	t.Parallel()

	cpi, err := TieredCPI(testEntries(), 5, 8, 10)
	if err != nil {
		t.Fatalf("TieredCPI() error = %v", err)
	}
	if cpi != 4 {
		t.Fatalf("cpi = %v, want 4", cpi)
	}

	// Rate exactly at revenue leaves no margin.
	if _, err := TieredCPI(testEntries(), 5, 8, 4); !errors.Is(err, ErrMarginExhausted) {
		t.Fatalf("rate == revenue error = %v, want ErrMarginExhausted", err)
	}
	if _, err := TieredCPI(testEntries(), 5, 8, 3.5); !errors.Is(err, ErrMarginExhausted) {
		t.Fatalf("rate > revenue error = %v, want ErrMarginExhausted", err)
	}
}

func TestCPIFilters(t *testing.T) {
	t.Parallel()

	greater := 2.0
	lower := 5.0
	exact := 3.0

	if !(CPIFilters{}).Accept(7) {
		t.Fatal("no filters should accept everything")
	}
	if !(CPIFilters{GreaterThan: &greater, LowerThan: &lower}).Accept(3) {
		t.Fatal("3 should pass (2, 5)")
	}
	if (CPIFilters{GreaterThan: &greater}).Accept(2) {
		t.Fatal("bound itself should not pass greatercpi")
	}
	if (CPIFilters{LowerThan: &lower}).Accept(5) {
		t.Fatal("bound itself should not pass lowercpi")
	}
	if !(CPIFilters{Exact: &exact}).Accept(3) || (CPIFilters{Exact: &exact}).Accept(3.1) {
		t.Fatal("exactcpi should match only the exact value")
	}
}
