package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
	"surveybridge/internal/usecase/prescreen"
	"surveybridge/internal/usecase/supply"
)

func apiKeyFromHeader(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	// Both bare keys and "Bearer <key>" are accepted.
	return strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
}

func (h *Handler) listLiveSurveys(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAttrs(r.Context(), slog.String("component", "api.supply"))

	query, err := parseListQuery(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := h.supply.ListLiveSurveys(ctx, apiKeyFromHeader(r), query)
	if err != nil {
		if errors.Is(err, supply.ErrUnauthorized) {
			writeFailure(w, http.StatusForbidden, "invalid token")
			return
		}
		logging.Error(ctx, "survey discovery failed", slog.Any("err", errs.Loggable(err)))
		writeFailure(w, http.StatusInternalServerError, "survey discovery failed")
		return
	}

	writeSuccess(w, http.StatusOK, views)
}

func parseListQuery(r *http.Request) (supply.ListQuery, error) {
	values := r.URL.Query()
	query := supply.ListQuery{
		Country:  strings.ToUpper(values.Get("country")),
		RawQuery: r.URL.RawQuery,
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return supply.ListQuery{}, errors.New("limit must be a positive integer")
		}
		query.Limit = limit
	}
	if raw := values.Get("loi"); raw != "" {
		loi, err := strconv.Atoi(raw)
		if err != nil {
			return supply.ListQuery{}, errors.New("loi must be an integer")
		}
		query.LOI = &loi
	}
	if raw := values.Get("ir"); raw != "" {
		ir, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return supply.ListQuery{}, errors.New("ir must be numeric")
		}
		query.IR = &ir
	}

	var err error
	if query.CPI.GreaterThan, err = floatParam(values.Get("greatercpi"), "greatercpi"); err != nil {
		return supply.ListQuery{}, err
	}
	if query.CPI.LowerThan, err = floatParam(values.Get("lowercpi"), "lowercpi"); err != nil {
		return supply.ListQuery{}, err
	}
	if query.CPI.Exact, err = floatParam(values.Get("exactcpi"), "exactcpi"); err != nil {
		return supply.ListQuery{}, err
	}

	full := values.Get("full") == "true"
	query.IncludeQuotas = full || values.Get("quota") == "true"
	query.IncludeQualifications = full || values.Get("qualification") == "true"
	return query, nil
}

func floatParam(raw string, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(name + " must be numeric")
	}
	return &value, nil
}

func (h *Handler) startRedirect(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, r.URL.Query().Get("test") == "true")
}

func (h *Handler) startTestRedirect(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, true)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, test bool) {
	ctx := logging.WithAttrs(r.Context(), slog.String("component", "api.redirect"))
	values := r.URL.Query()

	partnerID, err := strconv.ParseInt(values.Get("supply_id"), 10, 64)
	if err != nil || partnerID < 1 {
		writeFailure(w, http.StatusBadRequest, "supply_id must be a positive integer")
		return
	}

	session, err := h.supply.StartRedirect(ctx, supply.RedirectInput{
		SurveyID:     survey.ID(chi.URLParam(r, "surveyID")),
		PartnerID:    partnerID,
		RespondentID: values.Get("pnid"),
		Test:         test,
	})
	if err != nil {
		switch {
		case errors.Is(err, supply.ErrUnauthorized):
			writeFailure(w, http.StatusForbidden, "invalid token")
		case errors.Is(err, supply.ErrSurveyNotRoutable):
			writeFailure(w, http.StatusNotFound, "survey is not available")
		default:
			logging.Error(ctx, "redirect failed", slog.Any("err", errs.Loggable(err)))
			writeFailure(w, http.StatusInternalServerError, "redirect failed")
		}
		return
	}

	http.Redirect(w, r, session.TargetURL, http.StatusFound)
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAttrs(r.Context(), slog.String("component", "api.redirect"))
	values := r.URL.Query()

	landing, err := h.supply.CompleteSession(ctx, supply.CompleteInput{
		SurveyID: survey.ID(chi.URLParam(r, "surveyID")),
		Token:    values.Get("token"),
		Status:   values.Get("status"),
	})
	if err != nil {
		if errors.Is(err, supply.ErrInvalidSession) {
			writeFailure(w, http.StatusForbidden, "invalid session token")
			return
		}
		logging.Error(ctx, "session completion failed", slog.Any("err", errs.Loggable(err)))
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	http.Redirect(w, r, landing, http.StatusFound)
}

func (h *Handler) productCallback(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	req := supply.ProductRequest{
		Callback: values.Get("callback"),
	}
	if raw := values.Get("include_quotas"); raw != "" {
		include := raw == "true"
		req.IncludeQuotas = &include
	}
	req.PayloadMaxSizeMB, _ = strconv.Atoi(values.Get("payload_max_size_mb"))
	req.PayloadMaxSurveyCount, _ = strconv.Atoi(values.Get("payload_max_survey_count"))
	req.SendIntervalSeconds, _ = strconv.Atoi(values.Get("send_interval_seconds"))

	if values.Get("country_language") != "" || values.Get("study_type") != "" {
		op := supply.OpportunityRequest{
			CountryLanguage: values.Get("country_language"),
			StudyType:       values.Get("study_type"),
		}
		if rpi, err := floatParam(values.Get("revenue_per_interview"), "revenue_per_interview"); err == nil {
			op.RevenuePerInterview = rpi
		}
		if bid, err := floatParam(values.Get("bid_incidence"), "bid_incidence"); err == nil {
			op.BidIncidence = bid
		}
		req.Opportunities = append(req.Opportunities, op)
	}

	writeSuccess(w, http.StatusOK, h.supply.ProductCallbackParams(req))
}

func (h *Handler) prescreenQuestionnaire(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAttrs(r.Context(), slog.String("component", "api.prescreen"))

	questionnaire, err := h.prescreen.Questionnaire(ctx, survey.ID(chi.URLParam(r, "surveyID")))
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrSurveyNotFound):
			writeFailure(w, http.StatusNotFound, "survey not found")
		case errors.Is(err, prescreen.ErrNoQualifications):
			writeFailure(w, http.StatusNotFound, "survey has no qualifications")
		default:
			logging.Error(ctx, "prescreen generation failed", slog.Any("err", errs.Loggable(err)))
			writeFailure(w, http.StatusInternalServerError, "prescreen generation failed")
		}
		return
	}

	writeSuccess(w, http.StatusOK, questionnaire)
}
