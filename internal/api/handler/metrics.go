package handler

import (
	"net/http"
	"time"

	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/aggregating"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
	"github.com/vfg2006/adsense-sync-api/pkg/log"
	"github.com/vfg2006/adsense-sync-api/pkg/utils"
)

type MetricsRangeResponse struct {
	Window domain.MetricsWindow `json:"window"`
	Record *domain.MetricRecord `json:"record"`
}

// GetMetricsRange consulta uma janela explícita (?start=AAAA-MM-DD&end=AAAA-MM-DD)
func GetMetricsRange(service aggregating.Aggregator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		start, err := utils.ParseDate(r.URL.Query().Get("start"), loc)
		if err != nil {
			logger.WithFields(log.Fields{
				"start": r.URL.Query().Get("start"),
				"error": err.Error(),
			}).Warn("metrics: parâmetro start inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "start deve estar no formato AAAA-MM-DD", nil)
			return
		}

		end, err := utils.ParseDate(r.URL.Query().Get("end"), loc)
		if err != nil {
			logger.WithFields(log.Fields{
				"end":   r.URL.Query().Get("end"),
				"error": err.Error(),
			}).Warn("metrics: parâmetro end inválido")
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "end deve estar no formato AAAA-MM-DD", nil)
			return
		}

		window := domain.NewCustomWindow(start, end)
		if err := window.Validate(time.Now().In(loc)); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidWindow, err.Error(), nil)
			return
		}

		record, err := service.FetchRange(r.Context(), window)
		if err != nil {
			logger.WithFields(log.Fields{
				"window": window.String(),
				"error":  err.Error(),
			}).Warn("metrics: falha na consulta da janela")
			writeSyncError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MetricsRangeResponse{Window: window, Record: record})
	}
}
