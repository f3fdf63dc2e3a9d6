package handler

import (
	"net/http"

	"github.com/vfg2006/adsense-sync-api/internal/companion"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/syncing"
	"github.com/vfg2006/adsense-sync-api/pkg/log"
)

// ManualSyncer é o agendador visto pela API
type ManualSyncer interface {
	TriggerManualSync()
	GetStatus() map[string]any
}

// PeerLister expõe os companheiros conectados
type PeerLister interface {
	Peers() []companion.PeerInfo
}

type SyncServices struct {
	Coordinator syncing.Coordinator
	Scheduler   ManualSyncer
	Peers       PeerLister
}

type SyncStatusResponse struct {
	syncing.Status
	Scheduler map[string]any        `json:"scheduler,omitempty"`
	Peers     []companion.PeerInfo `json:"peers"`
}

func GetSyncStatus(services SyncServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := SyncStatusResponse{
			Status: services.Coordinator.Status(),
			Peers:  []companion.PeerInfo{},
		}
		if services.Scheduler != nil {
			resp.Scheduler = services.Scheduler.GetStatus()
		}
		if services.Peers != nil {
			resp.Peers = services.Peers.Peers()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// TriggerRefresh executa um ciclo e devolve o snapshot novo.
// Com ?async=true o ciclo é disparado em segundo plano e a resposta é 202.
func TriggerRefresh(services SyncServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		if r.URL.Query().Get("async") == "true" && services.Scheduler != nil {
			services.Scheduler.TriggerManualSync()
			writeJSON(w, http.StatusAccepted, map[string]string{
				"message": "Atualização iniciada em segundo plano",
			})
			return
		}

		snapshot, err := services.Coordinator.Refresh(r.Context())
		if err != nil {
			logger.WithError(err).Warn("sync: atualização manual falhou")
			writeSyncError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, snapshot)
	}
}

// CancelRefresh cancela o ciclo em andamento; nada do ciclo é persistido
func CancelRefresh(services SyncServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services.Coordinator.Cancel()
		w.WriteHeader(http.StatusNoContent)
	}
}
