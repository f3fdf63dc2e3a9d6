package handler

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/syncing"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("erro ao enviar resposta")
	}
}

// writeSyncError responde com o código do SyncError ou traduz o erro do domínio
func writeSyncError(w http.ResponseWriter, err error) {
	var syncErr *syncing.SyncError
	if errors.As(err, &syncErr) {
		var details map[string]any
		if syncErr.Cycle != "" {
			details = map[string]any{"cycle": syncErr.Cycle}
		}
		apiErrors.WriteError(w, syncErr.Code, syncErr.Error(), details)
		return
	}

	apiErrors.WriteError(w, syncing.CodeFor(err), err.Error(), nil)
}
