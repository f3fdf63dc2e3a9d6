package adsense

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/adsenseclient/mocks"
	adsensedomain "github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/domain"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"go.uber.org/mock/gomock"
)

func report(cells ...string) *adsensedomain.ReportResponse {
	resp := &adsensedomain.ReportResponse{Totals: &adsensedomain.Row{}}
	for i, metric := range adsensedomain.ReportMetrics {
		if i >= len(cells) {
			break
		}
		resp.Headers = append(resp.Headers, adsensedomain.Header{Name: metric})
		resp.Totals.Cells = append(resp.Totals.Cells, adsensedomain.Cell{Value: cells[i]})
	}
	return resp
}

func TestFactoryMetricRecord(t *testing.T) {
	tests := []struct {
		name     string
		resp     *adsensedomain.ReportResponse
		wantErr  bool
		validate func(t *testing.T, r *domain.MetricRecord)
	}{
		{
			name: "Relatório completo - arredonda dinheiro para duas casas",
			resp: report("12.345", "10", "2000", "1500", "1800", "1.234", "0.5"),
			validate: func(t *testing.T, r *domain.MetricRecord) {
				assert.Equal(t, "12.35", r.Earnings.StringFixed(2))
				assert.Equal(t, int64(10), r.Clicks)
				assert.Equal(t, int64(2000), r.Impressions)
				assert.Equal(t, int64(1500), r.PageViews)
				assert.Equal(t, int64(1800), r.MatchedRequests)
				assert.Equal(t, "1.23", r.CostPerClick.StringFixed(2))
				assert.Equal(t, 0.5, r.ImpressionCTR)
			},
		},
		{
			name:    "Campo ausente descarta o registro inteiro",
			resp:    report("12.34", "10", "2000", "1500", "1800", "1.23"),
			wantErr: true,
		},
		{
			name:    "Contador não numérico",
			resp:    report("12.34", "dez", "2000", "1500", "1800", "1.23", "0.5"),
			wantErr: true,
		},
		{
			name:    "CTR fora de [0,100]",
			resp:    report("12.34", "10", "2000", "1500", "1800", "1.23", "140"),
			wantErr: true,
		},
		{
			name:    "Ganhos negativos",
			resp:    report("-1.00", "10", "2000", "1500", "1800", "1.23", "0.5"),
			wantErr: true,
		},
		{
			name: "Sem totais usa a única linha",
			resp: func() *adsensedomain.ReportResponse {
				r := report("1.00", "1", "2", "3", "4", "0.50", "50")
				r.Rows = []adsensedomain.Row{*r.Totals}
				r.Totals = nil
				return r
			}(),
			validate: func(t *testing.T, r *domain.MetricRecord) {
				assert.Equal(t, "1.00", r.Earnings.StringFixed(2))
				assert.Equal(t, 50.0, r.ImpressionCTR)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := FactoryMetricRecord(tt.resp)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, record)
				return
			}
			require.NoError(t, err)
			tt.validate(t, record)
		})
	}
}

func TestParseFormattedAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"$1,234.56", "1234.56"},
		{"R$ 1.234,56", "1234.56"},
		{"€12,5", "12.50"},
		{"-$3.10", "-3.10"},
		{"¥1,200", "1200.00"},
		{"US$ 0.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormattedAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}

	_, err := ParseFormattedAmount("n/a")
	assert.Error(t, err)
}

func TestFactoryPayments(t *testing.T) {
	payments, err := FactoryPayments([]adsensedomain.Payment{
		{Name: "accounts/pub-1/payments/unpaid", Amount: "$45.10"},
		{Name: "accounts/pub-1/payments/2024-01-21", Amount: "$100.00", Date: &adsensedomain.Date{Year: 2024, Month: 1, Day: 21}},
		{Name: "accounts/pub-1/payments/2024-02-21", Amount: "$120.00", Date: &adsensedomain.Date{Year: 2024, Month: 2, Day: 21}},
	}, time.UTC)
	require.NoError(t, err)

	require.NotNil(t, payments.Unpaid)
	assert.Equal(t, "45.10", payments.Unpaid.Amount.StringFixed(2))
	require.NotNil(t, payments.LastPayment)
	assert.Equal(t, "120.00", payments.LastPayment.Amount.StringFixed(2))
	assert.Equal(t, time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC), *payments.LastPayment.Date)
}

func TestAdSenseIntegrator_Fetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockClient(ctrl)
	integrator := New(&config.Config{}, mockClient)

	now := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	integrator.now = func() time.Time { return now }
	today := domain.StartOfDay(now)

	t.Run("Janela válida é normalizada", func(t *testing.T) {
		window := domain.MetricsWindow{Name: domain.WindowToday, Start: today, End: today}
		mockClient.EXPECT().
			GenerateReport(gomock.Any(), "pub-1", window).
			Return(report("3.00", "1", "100", "80", "90", "3.00", "1.0"), nil)

		record, err := integrator.Fetch(context.Background(), "pub-1", window)
		require.NoError(t, err)
		assert.Equal(t, "3.00", record.Earnings.StringFixed(2))
	})

	t.Run("Janela no futuro falha antes de qualquer chamada", func(t *testing.T) {
		window := domain.NewCustomWindow(today, today.AddDate(0, 0, 1))

		_, err := integrator.Fetch(context.Background(), "pub-1", window)
		assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	})

	t.Run("Resposta malformada vira ErrDecoding", func(t *testing.T) {
		window := domain.MetricsWindow{Name: domain.WindowYesterday, Start: today.AddDate(0, 0, -1), End: today.AddDate(0, 0, -1)}
		mockClient.EXPECT().
			GenerateReport(gomock.Any(), "pub-1", window).
			Return(report("3.00"), nil)

		record, err := integrator.Fetch(context.Background(), "pub-1", window)
		assert.Nil(t, record)
		assert.ErrorIs(t, err, domain.ErrDecoding)
	})

	t.Run("Erro do cliente é repassado", func(t *testing.T) {
		window := domain.MetricsWindow{Name: domain.WindowToday, Start: today, End: today}
		unauthorized := domain.NewFetchError(domain.ErrUnauthorized, domain.WindowToday, "status 401")
		mockClient.EXPECT().
			GenerateReport(gomock.Any(), "pub-1", window).
			Return(nil, unauthorized)

		_, err := integrator.Fetch(context.Background(), "pub-1", window)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})
}

func TestAdSenseIntegrator_ResolveAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockClient(ctrl)

	t.Run("Conta configurada não consulta a API", func(t *testing.T) {
		integrator := New(&config.Config{AdSense: config.AdSense{AccountID: "pub-cfg"}}, mockClient)

		id, err := integrator.ResolveAccount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "pub-cfg", id)
	})

	t.Run("Prefere conta READY", func(t *testing.T) {
		integrator := New(&config.Config{}, mockClient)
		mockClient.EXPECT().ListAccounts(gomock.Any()).Return([]adsensedomain.Account{
			{Name: "accounts/pub-closed", State: "CLOSED"},
			{Name: "accounts/pub-ready", State: "READY"},
		}, nil)

		id, err := integrator.ResolveAccount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "pub-ready", id)
	})

	t.Run("Sem contas", func(t *testing.T) {
		integrator := New(&config.Config{}, mockClient)
		mockClient.EXPECT().ListAccounts(gomock.Any()).Return(nil, nil)

		_, err := integrator.ResolveAccount(context.Background())
		assert.ErrorIs(t, err, domain.ErrNoAccount)
	})
}
