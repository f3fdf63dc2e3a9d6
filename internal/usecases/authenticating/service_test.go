package authenticating

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, secret string) *Service {
	t.Helper()

	cfg := &config.Config{
		Auth: config.Auth{
			Secret:   "test-secret",
			TokenTTL: time.Hour,
		},
	}
	if secret != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
		require.NoError(t, err)
		cfg.Auth.DeviceSecretHash = string(hash)
	}

	return &Service{cfg: cfg, now: time.Now}
}

func TestIssueDeviceToken(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		req      *domain.DeviceTokenRequest
		wantErr  error
		wantCode string
	}{
		{
			name:   "Segredo correto emite token",
			secret: "pareamento",
			req:    &domain.DeviceTokenRequest{DeviceID: "watch-1", DeviceKind: domain.DeviceKindWatch, Secret: "pareamento"},
		},
		{
			name:     "Segredo incorreto",
			secret:   "pareamento",
			req:      &domain.DeviceTokenRequest{DeviceID: "watch-1", DeviceKind: domain.DeviceKindWatch, Secret: "errado"},
			wantErr:  ErrInvalidCredentials,
			wantCode: apiErrors.ErrInvalidCredentials,
		},
		{
			name:     "Dados ausentes",
			secret:   "pareamento",
			req:      &domain.DeviceTokenRequest{DeviceKind: domain.DeviceKindWidget},
			wantErr:  ErrMissingRequiredData,
			wantCode: apiErrors.ErrMissingRequiredData,
		},
		{
			name:     "Tipo de dispositivo desconhecido",
			secret:   "pareamento",
			req:      &domain.DeviceTokenRequest{DeviceID: "tv-1", DeviceKind: "tv", Secret: "pareamento"},
			wantErr:  ErrInvalidDeviceKind,
			wantCode: apiErrors.ErrInvalidFormat,
		},
		{
			name:     "Emissão desabilitada sem hash configurado",
			req:      &domain.DeviceTokenRequest{DeviceID: "app-1", DeviceKind: domain.DeviceKindApp, Secret: "qualquer"},
			wantErr:  ErrDevicesDisabled,
			wantCode: apiErrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, tt.secret)

			token, err := service.IssueDeviceToken(tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				var authErr *AuthError
				require.True(t, errors.As(err, &authErr))
				assert.Equal(t, tt.wantCode, authErr.Code)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			claims, err := service.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.req.DeviceID, claims.DeviceID)
			assert.Equal(t, tt.req.DeviceKind, claims.DeviceKind)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	service := newTestService(t, "pareamento")
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issuedAt }

	token, err := service.IssueDeviceToken(&domain.DeviceTokenRequest{DeviceID: "widget-1", DeviceKind: domain.DeviceKindWidget, Secret: "pareamento"})
	require.NoError(t, err)

	service.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service := newTestService(t, "pareamento")
	token, err := service.IssueDeviceToken(&domain.DeviceTokenRequest{DeviceID: "app-1", DeviceKind: domain.DeviceKindApp, Secret: "pareamento"})
	require.NoError(t, err)

	service.cfg.Auth.Secret = "outro-segredo"
	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	service := newTestService(t, "")
	_, err := service.ValidateToken("nao.e.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, IsCredentialsError(err))
}
