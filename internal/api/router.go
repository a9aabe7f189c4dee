package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"surveybridge/internal/usecase/ingest"
	"surveybridge/internal/usecase/prescreen"
	"surveybridge/internal/usecase/supply"
)

type Handler struct {
	ingest    *ingest.Service
	supply    *supply.Service
	prescreen *prescreen.Service
}

func NewHandler(ingestSvc *ingest.Service, supplySvc *supply.Service, prescreenSvc *prescreen.Service) *Handler {
	return &Handler{
		ingest:    ingestSvc,
		supply:    supplySvc,
		prescreen: prescreenSvc,
	}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "ok")
	})

	r.Route("/webhooks/surveys", func(r chi.Router) {
		r.Post("/", handler.ingestSurveys)
		r.Get("/schema", handler.ingestSchema)
	})

	r.Route("/surveys", func(r chi.Router) {
		r.Get("/", handler.listLiveSurveys)
		r.Get("/{surveyID}/prescreen", handler.prescreenQuestionnaire)
	})

	r.Route("/redirect/{surveyID}", func(r chi.Router) {
		r.Get("/", handler.startRedirect)
		r.Get("/test", handler.startTestRedirect)
		r.Get("/complete", handler.completeSession)
	})

	r.Get("/supply-product/callback", handler.productCallback)

	return r
}
