package domain

import (
	"context"
	"time"
)

// Session é o handle opaco do token OAuth2. Quem emite o refresh token é o fluxo de login.
type Session interface {
	// Token devolve um access token válido, renovando proativamente se estiver perto de expirar
	Token(ctx context.Context) (string, error)
	// Refresh renova o token. stale é o token que falhou: se outro chamador já renovou,
	// o token novo é devolvido sem nova chamada ao provedor.
	Refresh(ctx context.Context, stale string) (string, error)
}

// RetryPolicy limita as tentativas de um ciclo de agregação
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}
}

// Delay é a espera antes da tentativa attempt (1-based); a primeira não espera
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 || p.Backoff <= 0 {
		return 0
	}
	return time.Duration(1<<(attempt-2)) * p.Backoff
}
