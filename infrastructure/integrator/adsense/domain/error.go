package adsensedomain

import "net/http"

// ErrorResponse representa a estrutura de erro das APIs Google
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// IsAuthError verifica se o erro é de credencial (token expirado, revogado ou sem escopo)
func (e *ErrorResponse) IsAuthError() bool {
	return e.Error.Code == http.StatusUnauthorized ||
		e.Error.Code == http.StatusForbidden ||
		e.Error.Status == "UNAUTHENTICATED" ||
		e.Error.Status == "PERMISSION_DENIED"
}

// TokenErrorResponse é o erro devolvido pelo endpoint OAuth2 de token
type TokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// IsRevoked indica que o refresh token não serve mais e é preciso novo login
func (e *TokenErrorResponse) IsRevoked() bool {
	return e.Error == "invalid_grant" || e.Error == "unauthorized_client"
}
