package adsenseclient

import (
	"context"

	"github.com/sirupsen/logrus"
	adsensedomain "github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/domain"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

// ListAccounts lista as contas AdSense acessíveis com a credencial atual
func (c *AdSenseClient) ListAccounts(ctx context.Context) ([]adsensedomain.Account, error) {
	body, err := c.get(ctx, "", "/v2/accounts", nil)
	if err != nil {
		return nil, err
	}

	var response adsensedomain.AccountsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		logrus.WithError(err).Error("adsense: erro ao decodificar contas")
		return nil, domain.NewFetchError(domain.ErrDecoding, "", err.Error())
	}

	return response.Accounts, nil
}
