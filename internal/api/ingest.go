package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/invopop/jsonschema"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/usecase/ingest"
)

const maxWebhookBodyBytes = 16 << 20

type webhookResponse struct {
	Message  string               `json:"message"`
	Received int                  `json:"received"`
	Surveys  []ingest.EventResult `json:"surveys"`
	Errors   []ingest.ItemError   `json:"errors,omitempty"`
}

// ingestSurveys accepts a webhook push carrying either a single survey
// event or an array of them.
func (h *Handler) ingestSurveys(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAttrs(r.Context(), slog.String("component", "api.ingest"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(events) == 0 {
		writeFailure(w, http.StatusBadRequest, "empty survey batch")
		return
	}

	result, err := h.ingest.ProcessBatch(ctx, events)
	if err != nil {
		logging.Error(ctx, "batch processing failed", slog.Any("err", errs.Loggable(err)))
		writeFailure(w, http.StatusInternalServerError, "batch processing failed")
		return
	}

	resp := webhookResponse{
		Message:  "surveys processed",
		Received: result.Received,
		Surveys:  result.Processed,
		Errors:   result.Errors,
	}
	if resp.Surveys == nil {
		resp.Surveys = []ingest.EventResult{}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func decodeEvents(body []byte) ([]survey.InboundEvent, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errors.New("empty request body")
	}

	if trimmed[0] == '[' {
		var events []survey.InboundEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, errs.Wrap(err, "decode survey batch")
		}
		return events, nil
	}

	var event survey.InboundEvent
	if err := json.Unmarshal(trimmed, &event); err != nil {
		return nil, errs.Wrap(err, "decode survey event")
	}
	return []survey.InboundEvent{event}, nil
}

// ingestSchema publishes the JSON schema of the webhook payload so
// demand-side partners can validate pushes before sending them.
func (h *Handler) ingestSchema(w http.ResponseWriter, _ *http.Request) {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.Reflect(&survey.InboundEvent{})
	writeJSON(w, http.StatusOK, schema)
}
