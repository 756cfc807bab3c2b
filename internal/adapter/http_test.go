// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, serverURL string) StatusClient {
	t.Helper()

	a, err := NewHTTPStatusAdapter(serverURL, 2*time.Second, logger.Nop())
	require.NoError(t, err)
	return a
}

// ── Status ──────────────────────────────────────────────────────────────────

func TestStatus_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/status", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"gate":"held",
			"directory":"/srv/tools",
			"clients":["Client1","Client2"],
			"sessions":[{"client_id":"Client1","cycle_id":"c-1","phase":"awaiting_client_metadata","started_at":"2026-10-19T08:00:00Z"}],
			"version":"1.4.0"
		}`))
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.GateHeld, got.Gate)
	assert.Equal(t, "/srv/tools", got.Directory)
	assert.Equal(t, []string{"Client1", "Client2"}, got.Clients)
	require.Len(t, got.Sessions, 1)
	assert.Equal(t, "Client1", got.Sessions[0].ClientID)
	assert.Equal(t, models.PhaseAwaitingClientMetadata, got.Sessions[0].Phase)
	assert.Equal(t, "1.4.0", got.Version)
}

func TestStatus_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "bad request", status: http.StatusBadRequest, want: ErrBadRequest},
		{name: "not found", status: http.StatusNotFound, want: ErrNotFound},
		{name: "method not allowed", status: http.StatusMethodNotAllowed, want: ErrMethodNotAllowed},
		{name: "internal", status: http.StatusInternalServerError, want: ErrInternalServerError},
		{name: "bad gateway", status: http.StatusBadGateway, want: ErrBadGateway},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			_, err := newTestAdapter(t, srv.URL).Status(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestStatus_UnmappedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Status(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 418")
	assert.Contains(t, err.Error(), http.StatusText(http.StatusTeapot))
}

func TestStatus_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Status(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode server status")
}

func TestStatus_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestAdapter(t, url).Status(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status request")
}

// ── Version ─────────────────────────────────────────────────────────────────

func TestVersion_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("1.4.0\n"))
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).Version(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1.4.0", got)
}

func TestVersion_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Version(context.Background())

	assert.ErrorIs(t, err, ErrNotFound)
}

// ── normalizeBaseURL ─────────────────────────────────────────────────────────

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid http", "http://localhost:8080", "http://localhost:8080", false},
		{"https", "https://lab-server", "https://lab-server", false},
		{"no scheme", "localhost:8080", "http://localhost:8080", false},
		{"trailing slash", "http://localhost:8080/", "http://localhost:8080", false},
		{"surrounding spaces", "  lab-server:9000 ", "http://lab-server:9000", false},
		{"empty", "", "", true},
		{"no host", "http://", "", true},
		{"websocket scheme", "ws://lab-server:9000", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNewHTTPStatusAdapter_InvalidAddress(t *testing.T) {
	_, err := NewHTTPStatusAdapter("", time.Second, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
