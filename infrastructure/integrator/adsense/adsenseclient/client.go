package adsenseclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/infrastructure/connectivity"
	adsensedomain "github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/domain"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client interface {
	GenerateReport(ctx context.Context, accountID string, window domain.MetricsWindow) (*adsensedomain.ReportResponse, error)
	ListAccounts(ctx context.Context) ([]adsensedomain.Account, error)
	ListPayments(ctx context.Context, accountID string) ([]adsensedomain.Payment, error)
}

type AdSenseClient struct {
	Cfg        *config.Config
	Session    domain.Session
	prober     connectivity.Prober
	httpClient *http.Client
}

func NewClient(cfg *config.Config, session domain.Session, prober connectivity.Prober) *AdSenseClient {
	return &AdSenseClient{
		Cfg:     cfg,
		Session: session,
		prober:  prober,
		httpClient: &http.Client{
			Timeout: cfg.AdSense.FetchTimeout,
		},
	}
}

// get executa um GET autenticado. window identifica a consulta nos erros e pode ser vazio.
func (c *AdSenseClient) get(ctx context.Context, window domain.WindowName, path string, params url.Values) ([]byte, error) {
	if !c.prober.Online(ctx) {
		return nil, domain.NewFetchError(domain.ErrOffline, window, "")
	}

	token, err := c.Session.Token(ctx)
	if err != nil {
		return nil, domain.NewFetchError(err, window, "falha ao obter access token")
	}

	endpoint := strings.TrimRight(c.Cfg.AdSense.BaseURL, "/") + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logrus.WithError(err).Error("adsense: erro ao criar a requisição")
		return nil, domain.NewFetchError(domain.ErrNetwork, window, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err, window)
	}
	defer resp.Body.Close()

	return HandleResponse(resp, window)
}

// HandleResponse lê o corpo e traduz o status HTTP para a taxonomia de erros da sincronização
func HandleResponse(resp *http.Response, window domain.WindowName) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError(domain.ErrNetwork, window, fmt.Sprintf("erro ao ler resposta: %v", err))
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	detail := fmt.Sprintf("status %d", resp.StatusCode)
	var errorResp adsensedomain.ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
		detail = fmt.Sprintf("status %d: %s", resp.StatusCode, errorResp.Error.Message)
		if errorResp.IsAuthError() {
			return nil, domain.NewFetchError(domain.ErrUnauthorized, window, detail)
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, domain.NewFetchError(domain.ErrUnauthorized, window, detail)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return nil, domain.NewFetchError(domain.ErrTimeout, window, detail)
	}

	logrus.WithFields(logrus.Fields{
		"window": window,
		"status": resp.StatusCode,
	}).Warn("adsense: resposta de erro da API")

	return nil, domain.NewFetchError(domain.ErrNetwork, window, detail)
}

func classifyTransportError(ctx context.Context, err error, window domain.WindowName) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return domain.NewFetchError(domain.ErrCancelled, window, "")
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewFetchError(domain.ErrTimeout, window, err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewFetchError(domain.ErrTimeout, window, err.Error())
	}

	return domain.NewFetchError(domain.ErrNetwork, window, err.Error())
}

func accountResource(accountID string) string {
	if strings.HasPrefix(accountID, "accounts/") {
		return accountID
	}
	return "accounts/" + accountID
}
