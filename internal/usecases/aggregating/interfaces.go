package aggregating

import (
	"context"

	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

// Aggregator monta o snapshot consolidado a partir das consultas de janela
type Aggregator interface {
	// Aggregate consulta todas as janelas em paralelo e calcula as comparações.
	// Respeita a política de tentativas para falhas de autorização.
	Aggregate(ctx context.Context, policy domain.RetryPolicy) (*domain.SummarySnapshot, error)

	// FetchRange consulta uma única janela explícita (drill-down)
	FetchRange(ctx context.Context, window domain.MetricsWindow) (*domain.MetricRecord, error)
}
