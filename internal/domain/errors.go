package domain

import (
	"errors"
	"fmt"
)

// Taxonomia de erros da sincronização
var (
	ErrOffline        = errors.New("no network connectivity")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = fmt.Errorf("session expired: %w", ErrUnauthorized)
	ErrNoAccount      = errors.New("no adsense account reachable with current credentials")
	ErrDecoding       = errors.New("unexpected response shape")
	ErrTimeout        = errors.New("request timed out")
	ErrNetwork        = errors.New("network failure")
	ErrExhausted      = errors.New("retry budget exhausted")
	ErrCancelled      = errors.New("refresh cancelled")
	ErrInvalidWindow  = errors.New("invalid metrics window")
)

// FetchError é a falha de uma única consulta de janela
type FetchError struct {
	Err    error      // Erro base (um dos sentinelas acima)
	Window WindowName // Janela envolvida, vazia para chamadas sem janela
	Detail string     // Detalhes adicionais
}

// Error implementa a interface error
func (e *FetchError) Error() string {
	msg := e.Err.Error()
	if e.Window != "" {
		msg = fmt.Sprintf("%s: %s", e.Window, msg)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Unwrap retorna o erro subjacente
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError cria um FetchError
func NewFetchError(err error, window WindowName, detail string) *FetchError {
	return &FetchError{
		Err:    err,
		Window: window,
		Detail: detail,
	}
}

// ErrorKind classifica o erro num rótulo curto para logs, métricas e status
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrOffline):
		return "offline"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNoAccount):
		return "no_account"
	case errors.Is(err, ErrExhausted):
		return "exhausted"
	case errors.Is(err, ErrDecoding):
		return "decoding"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrInvalidWindow):
		return "invalid_window"
	default:
		return "error"
	}
}
