package handler

import (
	"errors"
	"net/http"

	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/authenticating"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
	"github.com/vfg2006/adsense-sync-api/pkg/log"
)

type DeviceTokenResponse struct {
	Token string `json:"token"`
}

// IssueDeviceToken troca o segredo de pareamento de um widget/relógio por um token de acesso
func IssueDeviceToken(service authenticating.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.DeviceTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		token, err := service.IssueDeviceToken(&req)
		if err != nil {
			var authErr *authenticating.AuthError
			// segredo errado não devolve detalhe ao cliente
			if authenticating.IsCredentialsError(err) && errors.As(err, &authErr) {
				log.ForContext(r.Context()).WithFields(log.Fields{
					"device_id":   req.DeviceID,
					"device_kind": req.DeviceKind,
				}).WithError(err).Warn("devices: pareamento recusado")
				apiErrors.WriteError(w, authErr.Code, "Credenciais do dispositivo recusadas", nil)
				return
			}
			if errors.As(err, &authErr) {
				apiErrors.WriteError(w, authErr.Code, authErr.Error(), map[string]any{
					"device_id": authErr.DeviceID,
				})
				return
			}
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro interno ao emitir token", nil)
			return
		}

		writeJSON(w, http.StatusOK, DeviceTokenResponse{Token: token})
	}
}
