package adsenseclient

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	adsensedomain "github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/domain"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

// paymentsWindow identifica a consulta de pagamentos nos erros
const paymentsWindow domain.WindowName = "payments"

func (c *AdSenseClient) ListPayments(ctx context.Context, accountID string) ([]adsensedomain.Payment, error) {
	path := fmt.Sprintf("/v2/%s/payments", accountResource(accountID))

	body, err := c.get(ctx, paymentsWindow, path, nil)
	if err != nil {
		return nil, err
	}

	var response adsensedomain.PaymentsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		logrus.WithError(err).Error("adsense: erro ao decodificar pagamentos")
		return nil, domain.NewFetchError(domain.ErrDecoding, paymentsWindow, err.Error())
	}

	return response.Payments, nil
}
