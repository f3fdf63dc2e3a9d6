package adsenseclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/internal/config"
)

// TokenManager gerencia o access token OAuth2 usado nas chamadas ao AdSense.
// Implementa domain.Session.
type TokenManager struct {
	cfg               *config.Config
	TokenRefreshMutex sync.Mutex
	httpClient        *http.Client
	stopRefresh       chan struct{}
	stopOnce          sync.Once
	now               func() time.Time
}

// NewTokenManager cria uma nova instância do gerenciador de tokens
func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		stopRefresh: make(chan struct{}),
		now:         time.Now,
	}
}

// Token devolve o access token atual, renovando antes se estiver vencido ou perto de vencer
func (tm *TokenManager) Token(ctx context.Context) (string, error) {
	tm.TokenRefreshMutex.Lock()
	defer tm.TokenRefreshMutex.Unlock()

	if tm.validLocked() {
		return tm.cfg.Google.AccessToken, nil
	}

	logrus.Info("Access token ausente ou perto de expirar. Renovando proativamente...")
	return tm.refreshLocked(ctx)
}

// Refresh renova o token que falhou. Se outra goroutine já trocou o token stale,
// devolve o novo sem chamar o provedor de novo.
func (tm *TokenManager) Refresh(ctx context.Context, stale string) (string, error) {
	tm.TokenRefreshMutex.Lock()
	defer tm.TokenRefreshMutex.Unlock()

	current := tm.cfg.Google.AccessToken
	if current != "" && current != stale && tm.validLocked() {
		logrus.Debug("Token já renovado por outra requisição")
		return current, nil
	}

	return tm.refreshLocked(ctx)
}

// validLocked considera válido um token sem expiração conhecida (token local via GOOGLE_ACCESS_TOKEN)
func (tm *TokenManager) validLocked() bool {
	if tm.cfg.Google.AccessToken == "" {
		return false
	}
	if tm.cfg.Google.TokenExpiresAt.IsZero() {
		return true
	}
	return tm.now().Before(tm.cfg.Google.TokenExpiresAt)
}

func (tm *TokenManager) refreshLocked(ctx context.Context) (string, error) {
	tokenResponse, err := RequestAccessToken(
		ctx,
		tm.httpClient,
		tm.cfg.Google.TokenURL,
		tm.cfg.Google.ClientID,
		tm.cfg.Google.ClientSecret,
		tm.cfg.Google.RefreshToken,
	)
	if err != nil {
		logrus.WithError(err).Error("Erro ao renovar access token")
		return "", err
	}

	tm.cfg.Google.AccessToken = tokenResponse.AccessToken
	tm.cfg.Google.TokenExpiresAt = CalculateTokenExpiration(tm.now(), tokenResponse.ExpiresIn)

	logrus.Infof("Access token atualizado. Válido até: %s", tm.cfg.Google.TokenExpiresAt.Format(time.RFC3339))

	return tm.cfg.Google.AccessToken, nil
}

// StartAutoRefresh mantém o token renovado em segundo plano até StopAutoRefresh
func (tm *TokenManager) StartAutoRefresh(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := tm.Token(ctx); err != nil {
				logrus.Errorf("Erro na renovação periódica do token: %v", err)
			}
			cancel()
		case <-tm.stopRefresh:
			logrus.Info("Encerrando goroutine de renovação periódica do token")
			return
		}
	}
}

// StopAutoRefresh para a goroutine de renovação automática
func (tm *TokenManager) StopAutoRefresh() {
	tm.stopOnce.Do(func() {
		close(tm.stopRefresh)
	})
}
