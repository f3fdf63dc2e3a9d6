package handler

import (
	"net/http"

	"github.com/vfg2006/adsense-sync-api/internal/usecases/syncing"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
	"github.com/vfg2006/adsense-sync-api/pkg/log"
)

// GetSnapshot devolve o último snapshot persistido, sem tocar a rede
func GetSnapshot(coordinator syncing.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		cached, err := coordinator.Cached(r.Context())
		if err != nil {
			logger.WithError(err).Error("snapshot: erro ao ler armazenamento compartilhado")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao ler snapshot", nil)
			return
		}

		if cached == nil {
			apiErrors.WriteError(w, apiErrors.ErrSnapshotNotFound, "Nenhum snapshot disponível ainda", nil)
			return
		}

		writeJSON(w, http.StatusOK, cached)
	}
}
