package adsenseclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/adsense-sync-api/infrastructure/connectivity"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

type fixedSession string

func (s fixedSession) Token(context.Context) (string, error) { return string(s), nil }

func (s fixedSession) Refresh(context.Context, string) (string, error) { return string(s), nil }

const reportBody = `{
  "totalMatchedRows": "1",
  "headers": [
    {"name": "ESTIMATED_EARNINGS", "type": "METRIC_CURRENCY", "currencyCode": "USD"},
    {"name": "CLICKS", "type": "METRIC_TALLY"},
    {"name": "IMPRESSIONS", "type": "METRIC_TALLY"},
    {"name": "PAGE_VIEWS", "type": "METRIC_TALLY"},
    {"name": "MATCHED_AD_REQUESTS", "type": "METRIC_TALLY"},
    {"name": "COST_PER_CLICK", "type": "METRIC_CURRENCY", "currencyCode": "USD"},
    {"name": "IMPRESSIONS_CTR", "type": "METRIC_RATIO"}
  ],
  "totals": {"cells": [
    {"value": "12.345"}, {"value": "10"}, {"value": "2000"}, {"value": "1500"},
    {"value": "1800"}, {"value": "1.23"}, {"value": "0.5"}
  ]}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, online bool) *AdSenseClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		AdSense: config.AdSense{
			BaseURL:      srv.URL,
			FetchTimeout: 5 * time.Second,
		},
	}
	return NewClient(cfg, fixedSession("tok"), connectivity.Static(online))
}

func testWindow() domain.MetricsWindow {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return domain.MetricsWindow{Name: domain.WindowLast7Days, Start: day.AddDate(0, 0, -6), End: day}
}

func TestGenerateReport_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/accounts/pub-123/reports:generate", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "CUSTOM", q.Get("dateRange"))
		assert.Equal(t, "2024", q.Get("startDate.year"))
		assert.Equal(t, "2", q.Get("startDate.month"))
		assert.Equal(t, "28", q.Get("startDate.day"))
		assert.Equal(t, "3", q.Get("endDate.month"))
		assert.Equal(t, "5", q.Get("endDate.day"))
		assert.Len(t, q["metrics"], 7)

		w.Write([]byte(reportBody))
	}, true)

	resp, err := client.GenerateReport(context.Background(), "pub-123", testWindow())
	require.NoError(t, err)

	values, err := resp.TotalsByHeader()
	require.NoError(t, err)
	assert.Equal(t, "12.345", values["ESTIMATED_EARNINGS"])
	assert.Equal(t, "0.5", values["IMPRESSIONS_CTR"])
}

func TestGenerateReport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		online  bool
		want    error
	}{
		{
			name: "401 vira ErrUnauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"code":401,"message":"Request had invalid authentication credentials.","status":"UNAUTHENTICATED"}}`))
			},
			online: true,
			want:   domain.ErrUnauthorized,
		},
		{
			name: "403 sem corpo vira ErrUnauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			online: true,
			want:   domain.ErrUnauthorized,
		},
		{
			name: "corpo inválido vira ErrDecoding",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>not json</html>`))
			},
			online: true,
			want:   domain.ErrDecoding,
		},
		{
			name: "500 vira ErrNetwork",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			online: true,
			want:   domain.ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler, tt.online)

			resp, err := client.GenerateReport(context.Background(), "pub-123", testWindow())
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)

			var fetchErr *domain.FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, domain.WindowLast7Days, fetchErr.Window)
		})
	}
}

func TestGenerateReport_OfflineSkipsRequest(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, false)

	_, err := client.GenerateReport(context.Background(), "pub-123", testWindow())
	assert.ErrorIs(t, err, domain.ErrOffline)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGenerateReport_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateReport(ctx, "pub-123", testWindow())
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestListAccountsAndPayments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/accounts":
			w.Write([]byte(`{"accounts":[{"name":"accounts/pub-123","displayName":"Blog","state":"READY"}]}`))
		case "/v2/accounts/pub-123/payments":
			w.Write([]byte(`{"payments":[
				{"name":"accounts/pub-123/payments/unpaid","amount":"$45.10"},
				{"name":"accounts/pub-123/payments/2024-02-21","amount":"$120.00","date":{"year":2024,"month":2,"day":21}}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, true)

	accounts, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "pub-123", accounts[0].ID())

	payments, err := client.ListPayments(context.Background(), "pub-123")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.True(t, payments[0].IsUnpaid())
	assert.Equal(t, "2024-02-21", payments[1].Date.String())
}
