package provisioner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"surveybridge/internal/bootstrap/config"
	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

const (
	supplierLinkTypeCode = "OWS"
	trackingTypeCode     = "NONE"
)

// SupplierLinksClient provisions per-supplier entry links from the
// demand-side API. All transport and payload failures are absorbed into
// empty links: an unreachable provisioner must never abort an ingestion
// batch.
type SupplierLinksClient struct {
	baseURL     string
	token       string
	productCode string
	httpClient  *http.Client
}

var _ ports.LinkResolver = (*SupplierLinksClient)(nil)

func NewSupplierLinksClient(cfg config.ProvisionerConfig) *SupplierLinksClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SupplierLinksClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		productCode: cfg.ProductCode,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type supplierLinkRequest struct {
	SupplierLinkTypeCode string `json:"SupplierLinkTypeCode"`
	TrackingTypeCode     string `json:"TrackingTypeCode"`
}

type supplierLinkResponse struct {
	SupplierLink *struct {
		LiveLink    string  `json:"LiveLink"`
		TestLink    string  `json:"TestLink"`
		DefaultLink *string `json:"DefaultLink"`
	} `json:"SupplierLink"`
}

func (c *SupplierLinksClient) Resolve(ctx context.Context, surveyID survey.ID) (survey.Links, error) {
	if ctx == nil {
		return survey.Links{}, errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "provisioner"),
		slog.String("survey_id", surveyID.String()),
	)

	url := fmt.Sprintf("%s/Create/%s/%s", c.baseURL, surveyID.String(), c.productCode)
	body, err := json.Marshal(supplierLinkRequest{
		SupplierLinkTypeCode: supplierLinkTypeCode,
		TrackingTypeCode:     trackingTypeCode,
	})
	if err != nil {
		return survey.Links{}, errs.Wrap(err, "encode supplier link request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return survey.Links{}, errs.Wrap(err, "build supplier link request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Warn(logCtx, "supplier link request failed", slog.Any("err", errs.Loggable(err)))
		return survey.Links{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logging.Warn(logCtx, "supplier link request rejected", slog.Int("status", resp.StatusCode))
		return survey.Links{}, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logging.Warn(logCtx, "supplier link response unreadable", slog.Any("err", errs.Loggable(err)))
		return survey.Links{}, nil
	}

	var parsed supplierLinkResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.SupplierLink == nil {
		logging.Warn(logCtx, "supplier link response invalid")
		return survey.Links{}, nil
	}

	// A non-null DefaultLink means the supplier has no dedicated live
	// link for this survey; such surveys are not routable.
	if parsed.SupplierLink.DefaultLink != nil {
		return survey.Links{TestLink: parsed.SupplierLink.TestLink}, nil
	}

	return survey.Links{
		LiveLink: parsed.SupplierLink.LiveLink,
		TestLink: parsed.SupplierLink.TestLink,
	}, nil
}
