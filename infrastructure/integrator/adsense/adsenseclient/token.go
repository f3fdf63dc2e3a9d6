package adsenseclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	adsensedomain "github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/domain"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

// TokenResponse representa a resposta do endpoint OAuth2 ao trocar o refresh token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// RequestAccessToken troca o refresh token por um novo access token (grant_type=refresh_token)
func RequestAccessToken(ctx context.Context, client *http.Client, tokenURL, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token não configurado", domain.ErrSessionExpired)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: erro ao criar requisição de token: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: renovação de token: %v", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: renovação de token: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: erro ao ler resposta: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		logrus.Errorf("Erro renovando access token. Status: %d, Resposta: %s", resp.StatusCode, string(body))

		var errorResp adsensedomain.TokenErrorResponse
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.IsRevoked() {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionExpired, errorResp.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: renovação de token. Status: %d", domain.ErrNetwork, resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: resposta de token: %v", domain.ErrDecoding, err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token retornado pela API é vazio", domain.ErrDecoding)
	}

	logrus.Infof("Access token renovado com sucesso. Expira em %s.", FormatDuration(tokenResp.ExpiresIn))

	return &tokenResp, nil
}

// FormatDuration formata a duração em segundos para um formato legível
func FormatDuration(seconds int64) string {
	duration := time.Duration(seconds) * time.Second
	hours := duration / time.Hour
	minutes := (duration % time.Hour) / time.Minute

	return fmt.Sprintf("%d horas e %d minutos", hours, minutes)
}

// CalculateTokenExpiration calcula quando o token deve ser considerado vencido,
// com folga para renovar antes da expiração real
func CalculateTokenExpiration(now time.Time, expiresIn int64) time.Time {
	buffer := int64(5 * 60)
	safeExpiresIn := expiresIn - buffer

	if safeExpiresIn < 0 {
		safeExpiresIn = expiresIn / 2
	}

	return now.Add(time.Duration(safeExpiresIn) * time.Second)
}
