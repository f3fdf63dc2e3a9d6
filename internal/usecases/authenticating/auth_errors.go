package authenticating

import (
	"errors"
	"fmt"
)

// Tipos de erros de autenticação de dispositivos
var (
	ErrInvalidCredentials  = errors.New("credenciais inválidas")
	ErrInvalidToken        = errors.New("token inválido")
	ErrExpiredToken        = errors.New("token expirado")
	ErrMissingRequiredData = errors.New("dados obrigatórios ausentes")
	ErrDevicesDisabled     = errors.New("emissão de tokens de dispositivo desabilitada")
	ErrInvalidDeviceKind   = errors.New("tipo de dispositivo inválido")
)

// AuthError é um erro com contexto adicional para autenticação
type AuthError struct {
	Err      error  // Erro base
	Code     string // Código de erro para API
	DeviceID string // Dispositivo envolvido (quando aplicável)
	Details  string // Detalhes adicionais
}

// Error implementa a interface error
func (e *AuthError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap retorna o erro subjacente
func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsCredentialsError verifica se o erro está relacionado a credenciais inválidas
func IsCredentialsError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrDevicesDisabled)
}

// NewAuthError cria um novo erro de autenticação
func NewAuthError(baseErr error, code string, details string) *AuthError {
	return &AuthError{
		Err:     baseErr,
		Code:    code,
		Details: details,
	}
}

// NewDeviceAuthError cria um novo erro de autenticação com contexto de dispositivo
func NewDeviceAuthError(baseErr error, code string, deviceID string, details string) *AuthError {
	return &AuthError{
		Err:      baseErr,
		Code:     code,
		DeviceID: deviceID,
		Details:  details,
	}
}
