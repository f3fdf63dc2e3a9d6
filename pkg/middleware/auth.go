package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/authenticating"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
)

type contextKey string

const (
	ContextKeyDevice contextKey = "device"
)

// rotas liberadas sem token
var publicPaths = map[string]bool{
	"/healthcheck":      true,
	"/metrics":          true,
	"/v1/devices/token": true,
}

func AuthMiddleware(authService authenticating.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Bearer token is required", nil)
				return
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				code := apiErrors.ErrInvalidToken
				var authErr *authenticating.AuthError
				if errors.As(err, &authErr) {
					code = authErr.Code
				}
				apiErrors.WriteError(w, code, "Invalid token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyDevice, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken lê o header Authorization. O relógio não consegue enviar headers no
// handshake do WebSocket, então ?access_token= vale apenas para pedidos de upgrade
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return "", false
		}
		return tokenString, true
	}

	if !websocket.IsWebSocketUpgrade(r) {
		return "", false
	}
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, true
	}

	return "", false
}
