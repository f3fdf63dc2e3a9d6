package syncing

import (
	"time"

	"github.com/sirupsen/logrus"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// transições permitidas; os estados finais voltam sempre para idle
var transitions = map[State][]State{
	StateIdle:      {StateRunning},
	StateRunning:   {StateSucceeded, StateFailed, StateCancelled},
	StateSucceeded: {StateIdle},
	StateFailed:    {StateIdle},
	StateCancelled: {StateIdle},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Status é a visão pública do coordenador
type Status struct {
	State              State      `json:"state"`
	LastOutcome        State      `json:"last_outcome,omitempty"`
	Cycle              string     `json:"cycle,omitempty"`
	Waiters            int        `json:"waiters"`
	LastStartedAt      *time.Time `json:"last_started_at,omitempty"`
	LastSuccessAt      *time.Time `json:"last_success_at,omitempty"`
	LastError          string     `json:"last_error,omitempty"`
	LastErrorCode      string     `json:"last_error_code,omitempty"`
	CompanionReachable bool       `json:"companion_reachable"`
}

// transitionLocked aplica a transição se for válida. Chamado com s.mu travado.
func (s *Service) transitionLocked(to State) bool {
	if !canTransition(s.state, to) {
		logrus.WithFields(logrus.Fields{
			"from": s.state,
			"to":   to,
		}).Warn("sync: transição de estado inválida recusada")
		return false
	}

	s.state = to
	if to != StateIdle && to != StateRunning {
		s.lastOutcome = to
	}
	return true
}
