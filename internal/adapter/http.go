// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/internal/utils"
	"github.com/MKhiriev/go-lab-updater/models"
)

const (
	statusPath  = "/api/status"
	versionPath = "/api/version"
)

type httpStatusAdapter struct {
	client *utils.HTTPClient
	logger *logger.Logger
}

// NewHTTPStatusAdapter builds a [StatusClient] for serverURL. A bare host:port
// is treated as http. timeout bounds every request.
func NewHTTPStatusAdapter(serverURL string, timeout time.Duration, log *logger.Logger) (StatusClient, error) {
	baseURL, err := normalizeBaseURL(serverURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	return &httpStatusAdapter{
		client: utils.NewHTTPClient(baseURL, timeout),
		logger: log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("address must include host")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Status implements [StatusClient].
func (h *httpStatusAdapter) Status(ctx context.Context) (models.ServerStatus, error) {
	resp, err := h.client.R().SetContext(ctx).Get(statusPath)
	if err != nil {
		return models.ServerStatus{}, fmt.Errorf("status request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ServerStatus{}, err
	}

	var status models.ServerStatus
	if err = json.Unmarshal(resp.Body(), &status); err != nil {
		return models.ServerStatus{}, fmt.Errorf("decode server status: %w", err)
	}

	h.logger.Debug().
		Str("gate", status.Gate).
		Int("clients", len(status.Clients)).
		Msg("server status received")
	return status, nil
}

// Version implements [StatusClient].
func (h *httpStatusAdapter) Version(ctx context.Context) (string, error) {
	resp, err := h.client.R().SetContext(ctx).Get(versionPath)
	if err != nil {
		return "", fmt.Errorf("version request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.String()), nil
}
