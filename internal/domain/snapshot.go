package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemaVersion é a versão do formato do snapshot compartilhado entre processos.
// Leitores ignoram snapshots com versão diferente.
const SchemaVersion = 1

type WindowStatus string

const (
	WindowAvailable   WindowStatus = "available"
	WindowUnavailable WindowStatus = "unavailable"
)

// WindowResult é o valor de uma janela dentro do snapshot.
// Unavailable é distinto de um registro zerado: Record fica nil e Reason explica a falha.
type WindowResult struct {
	Window MetricsWindow `json:"window"`
	Status WindowStatus  `json:"status"`
	Record *MetricRecord `json:"record,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

func AvailableWindow(w MetricsWindow, record MetricRecord) WindowResult {
	return WindowResult{Window: w, Status: WindowAvailable, Record: &record}
}

func UnavailableWindow(w MetricsWindow, err error) WindowResult {
	reason := "unknown"
	if err != nil {
		reason = err.Error()
	}
	return WindowResult{Window: w, Status: WindowUnavailable, Reason: reason}
}

func (r WindowResult) Available() bool {
	return r.Status == WindowAvailable && r.Record != nil
}

// Payment é um pagamento (ou o saldo em aberto) da conta
type Payment struct {
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"date,omitempty"`
}

// Payments reúne saldo em aberto e o último pagamento efetuado
type Payments struct {
	Unpaid      *Payment `json:"unpaid,omitempty"`
	LastPayment *Payment `json:"last_payment,omitempty"`
}

// PaymentsResult segue a mesma semântica available/unavailable das janelas
type PaymentsResult struct {
	Status   WindowStatus `json:"status"`
	Payments *Payments    `json:"payments,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// SummarySnapshot é o estado consolidado e compartilhável.
// Criado a cada ciclo de agregação bem-sucedido e nunca alterado depois disso.
type SummarySnapshot struct {
	SchemaVersion int                         `json:"schema_version"`
	GeneratedAt   time.Time                   `json:"generated_at"`
	AccountID     string                      `json:"account_id"`
	Timezone      string                      `json:"timezone"`
	Windows       map[WindowName]WindowResult `json:"windows"`
	Deltas        map[DeltaName]DeltaResult   `json:"deltas"`
	Payments      PaymentsResult              `json:"payments"`
}

// NewSummarySnapshot monta um snapshot copiando os mapas recebidos
func NewSummarySnapshot(
	accountID string,
	generatedAt time.Time,
	windows map[WindowName]WindowResult,
	deltas map[DeltaName]DeltaResult,
	payments PaymentsResult,
) *SummarySnapshot {
	w := make(map[WindowName]WindowResult, len(windows))
	for k, v := range windows {
		w[k] = v
	}
	d := make(map[DeltaName]DeltaResult, len(deltas))
	for k, v := range deltas {
		d[k] = v
	}

	return &SummarySnapshot{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   generatedAt,
		AccountID:     accountID,
		Timezone:      generatedAt.Location().String(),
		Windows:       w,
		Deltas:        d,
		Payments:      payments,
	}
}

// Window retorna o resultado de uma janela nomeada
func (s *SummarySnapshot) Window(name WindowName) (WindowResult, bool) {
	r, ok := s.Windows[name]
	return r, ok
}

// Delta retorna a comparação nomeada, ausente quando um dos lados estava indisponível
func (s *SummarySnapshot) Delta(name DeltaName) (DeltaResult, bool) {
	d, ok := s.Deltas[name]
	return d, ok
}

// Age é a idade do snapshot em relação a now
func (s *SummarySnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.GeneratedAt)
}

// IsFresh informa se o snapshot ainda está dentro de maxAge
func IsFresh(s *SummarySnapshot, maxAge time.Duration, now time.Time) bool {
	if s == nil {
		return false
	}
	return s.Age(now) <= maxAge
}
