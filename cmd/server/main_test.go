package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

func TestNewHandler(t *testing.T) {
	cfg := &config.Config{
		Port:               "8080",
		StorageBackend:     "memory",
		JWTSecret:          "secret",
		JWTExpiry:          time.Hour,
		MaxMutationRetries: 3,
		AuthRateLimit:      "10-M",
	}
	handler, err := newHandler(cfg, ledger.New(memory.New()))
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"preflight", http.MethodOptions, "/splitledger.v1.LedgerService/GetUserBalances", http.StatusNoContent},
		{"unknown procedure", http.MethodPost, "/splitledger.v1.LedgerService/Nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	t.Run("bad rate", func(t *testing.T) {
		bad := *cfg
		bad.AuthRateLimit = "lots"
		_, err := newHandler(&bad, ledger.New(memory.New()))
		assert.Error(t, err)
	})
}
