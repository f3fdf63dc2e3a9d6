package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale é o número fixo de casas decimais dos valores monetários
const MoneyScale = 2

// MetricRecord é o resultado normalizado de uma consulta de janela.
// Formatação para exibição fica fora deste modelo.
type MetricRecord struct {
	Earnings        decimal.Decimal `json:"earnings"`
	Clicks          int64           `json:"clicks"`
	Impressions     int64           `json:"impressions"`
	PageViews       int64           `json:"page_views"`
	MatchedRequests int64           `json:"matched_requests"`
	CostPerClick    decimal.Decimal `json:"cost_per_click"`
	ImpressionCTR   float64         `json:"impression_ctr"` // já em escala [0,100]
}

// Validate verifica as invariantes do registro
func (r MetricRecord) Validate() error {
	switch {
	case r.Earnings.IsNegative():
		return fmt.Errorf("earnings negativo: %s", r.Earnings)
	case r.CostPerClick.IsNegative():
		return fmt.Errorf("cost per click negativo: %s", r.CostPerClick)
	case r.Clicks < 0, r.Impressions < 0, r.PageViews < 0, r.MatchedRequests < 0:
		return fmt.Errorf("contador negativo: clicks=%d impressions=%d page_views=%d matched=%d",
			r.Clicks, r.Impressions, r.PageViews, r.MatchedRequests)
	case r.ImpressionCTR < 0 || r.ImpressionCTR > 100:
		return fmt.Errorf("impression ctr fora de [0,100]: %v", r.ImpressionCTR)
	}
	return nil
}

// ParseMoney converte o valor textual da API para decimal com duas casas fixas
func ParseMoney(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(MoneyScale), nil
}
