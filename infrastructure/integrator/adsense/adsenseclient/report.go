package adsenseclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	adsensedomain "github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/domain"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

// GenerateReport consulta os totais de uma janela, sem dimensões
func (c *AdSenseClient) GenerateReport(ctx context.Context, accountID string, window domain.MetricsWindow) (*adsensedomain.ReportResponse, error) {
	params := url.Values{}
	params.Set("dateRange", "CUSTOM")
	params.Set("startDate.year", strconv.Itoa(window.Start.Year()))
	params.Set("startDate.month", strconv.Itoa(int(window.Start.Month())))
	params.Set("startDate.day", strconv.Itoa(window.Start.Day()))
	params.Set("endDate.year", strconv.Itoa(window.End.Year()))
	params.Set("endDate.month", strconv.Itoa(int(window.End.Month())))
	params.Set("endDate.day", strconv.Itoa(window.End.Day()))
	for _, metric := range adsensedomain.ReportMetrics {
		params.Add("metrics", metric)
	}

	path := fmt.Sprintf("/v2/%s/reports:generate", accountResource(accountID))

	body, err := c.get(ctx, window.Name, path, params)
	if err != nil {
		return nil, err
	}

	var response adsensedomain.ReportResponse
	if err := json.Unmarshal(body, &response); err != nil {
		logrus.WithError(err).WithField("window", window.Name).Error("adsense: erro ao decodificar relatório")
		return nil, domain.NewFetchError(domain.ErrDecoding, window.Name, err.Error())
	}

	return &response, nil
}
