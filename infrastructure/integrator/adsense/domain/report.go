package adsensedomain

import (
	"fmt"
	"time"
)

// Métricas pedidas ao endpoint reports:generate, na ordem das colunas
const (
	MetricEstimatedEarnings = "ESTIMATED_EARNINGS"
	MetricClicks            = "CLICKS"
	MetricImpressions       = "IMPRESSIONS"
	MetricPageViews         = "PAGE_VIEWS"
	MetricMatchedAdRequests = "MATCHED_AD_REQUESTS"
	MetricCostPerClick      = "COST_PER_CLICK"
	MetricImpressionsCTR    = "IMPRESSIONS_CTR"
)

var ReportMetrics = []string{
	MetricEstimatedEarnings,
	MetricClicks,
	MetricImpressions,
	MetricPageViews,
	MetricMatchedAdRequests,
	MetricCostPerClick,
	MetricImpressionsCTR,
}

// Date é o formato de data usado pela API (google.type.Date)
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

type Header struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	CurrencyCode string `json:"currencyCode,omitempty"`
}

type Cell struct {
	Value string `json:"value"`
}

type Row struct {
	Cells []Cell `json:"cells"`
}

// ReportResponse é a resposta crua de accounts.reports.generate
type ReportResponse struct {
	TotalMatchedRows string   `json:"totalMatchedRows"`
	Headers          []Header `json:"headers"`
	Rows             []Row    `json:"rows"`
	Totals           *Row     `json:"totals"`
	Averages         *Row     `json:"averages"`
	Warnings         []string `json:"warnings"`
	StartDate        Date     `json:"startDate"`
	EndDate          Date     `json:"endDate"`
}

// TotalsByHeader indexa a linha de totais pelo nome da coluna.
// Sem dimensões a API às vezes omite totals e devolve uma única linha.
func (r *ReportResponse) TotalsByHeader() (map[string]string, error) {
	totals := r.Totals
	if totals == nil {
		if len(r.Rows) != 1 {
			return nil, fmt.Errorf("relatório sem totais e com %d linhas", len(r.Rows))
		}
		totals = &r.Rows[0]
	}

	if len(totals.Cells) != len(r.Headers) {
		return nil, fmt.Errorf("relatório com %d colunas e %d células", len(r.Headers), len(totals.Cells))
	}

	values := make(map[string]string, len(r.Headers))
	for i, h := range r.Headers {
		values[h.Name] = totals.Cells[i].Value
	}
	return values, nil
}
