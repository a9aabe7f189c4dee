package survey

import (
	"encoding/json"
	"testing"
)

func TestOptionalAbsentField(t *testing.T) {
	t.Parallel()

	var event InboundEvent
	if err := json.Unmarshal([]byte(`{"survey_id": "1"}`), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Quotas.Provided() {
		t.Fatal("absent survey_quotas reported as provided")
	}
}

func TestOptionalNullCountsAsAbsent(t *testing.T) {
	t.Parallel()

	var event InboundEvent
	if err := json.Unmarshal([]byte(`{"survey_id": "1", "survey_quotas": null}`), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Quotas.Provided() {
		t.Fatal("null survey_quotas reported as provided")
	}
}

func TestOptionalEmptyListIsProvided(t *testing.T) {
	t.Parallel()

	var event InboundEvent
	if err := json.Unmarshal([]byte(`{"survey_id": "1", "survey_quotas": []}`), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !event.Quotas.Provided() {
		t.Fatal("empty survey_quotas reported as absent")
	}
	if len(event.Quotas.Value()) != 0 {
		t.Fatalf("quotas len = %d, want 0", len(event.Quotas.Value()))
	}
}

func TestOptionalPopulatedList(t *testing.T) {
	t.Parallel()

	raw := `{"survey_id": "1", "survey_quotas": [{"survey_quota_id": "q1", "number_of_respondents": 50}]}`
	var event InboundEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	quotas := event.Quotas.Value()
	if len(quotas) != 1 {
		t.Fatalf("quotas len = %d, want 1", len(quotas))
	}
	if quotas[0].QuotaID != "q1" || quotas[0].TargetCount != 50 {
		t.Fatalf("quota = %+v", quotas[0])
	}
}

func TestOptionalMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(Some([]QuotaInput{}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("provided-empty marshals to %q, want []", out)
	}

	var absent Optional[[]QuotaInput]
	out, err = json.Marshal(absent)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("absent marshals to %q, want null", out)
	}
}
