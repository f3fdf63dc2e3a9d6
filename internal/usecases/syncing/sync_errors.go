package syncing

import (
	"errors"
	"fmt"

	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
)

var ErrStoreWrite = errors.New("error persisting snapshot")

// SyncError é um erro com contexto adicional do ciclo de atualização
type SyncError struct {
	Err     error  // Erro base
	Code    string // Código de erro para API
	Cycle   string // Ciclo envolvido (quando aplicável)
	Details string // Detalhes adicionais
}

// Error implementa a interface error
func (e *SyncError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap retorna o erro subjacente
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError cria um SyncError escolhendo o código da API a partir do erro base
func NewSyncError(err error, cycle string, details string) *SyncError {
	return &SyncError{
		Err:     err,
		Code:    CodeFor(err),
		Cycle:   cycle,
		Details: details,
	}
}

// CodeFor traduz um erro do domínio para o código exposto pela API
func CodeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidWindow):
		return apiErrors.ErrInvalidWindow
	case errors.Is(err, domain.ErrOffline):
		return apiErrors.ErrOffline
	case errors.Is(err, domain.ErrCancelled):
		return apiErrors.ErrRefreshCancelled
	case errors.Is(err, domain.ErrUnauthorized):
		return apiErrors.ErrSessionExpired
	case errors.Is(err, domain.ErrNoAccount):
		return apiErrors.ErrNoAccount
	case errors.Is(err, domain.ErrExhausted):
		return apiErrors.ErrRetriesExhausted
	case errors.Is(err, ErrStoreWrite):
		return apiErrors.ErrDatabaseOperation
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, domain.ErrNetwork):
		return apiErrors.ErrCommunication
	default:
		return apiErrors.ErrExternalService
	}
}
