package middleware

import (
	"net/http"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
)

// DeviceKindMiddleware restringe a rota aos tipos de dispositivo informados
func DeviceKindMiddleware(allowedKinds []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(ContextKeyDevice).(*domain.Claims)
			if !ok {
				logrus.Warning("Tentativa de acesso sem autenticação")
				apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Dispositivo não autenticado", nil)
				return
			}

			if !slices.Contains(allowedKinds, claims.DeviceKind) {
				logrus.Warningf("Acesso negado para dispositivo ID=%s, Kind=%s", claims.DeviceID, claims.DeviceKind)
				apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Este dispositivo não tem permissão para acessar este recurso", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AppOnly permite acesso apenas ao aplicativo principal
func AppOnly() func(http.Handler) http.Handler {
	return DeviceKindMiddleware([]string{domain.DeviceKindApp})
}

// AllDevices permite acesso a qualquer leitor autenticado
func AllDevices() func(http.Handler) http.Handler {
	return DeviceKindMiddleware([]string{domain.DeviceKindApp, domain.DeviceKindWidget, domain.DeviceKindWatch})
}
