package syncing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/infrastructure/connectivity"
	"github.com/vfg2006/adsense-sync-api/infrastructure/repository"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/aggregating"
	"github.com/vfg2006/adsense-sync-api/pkg/log"
	"github.com/vfg2006/adsense-sync-api/pkg/telemetry"
)

// Coordinator é o único dono do ciclo de atualização
type Coordinator interface {
	Refresh(ctx context.Context) (*domain.SummarySnapshot, error)
	Cancel()
	Status() Status
	Cached(ctx context.Context) (*CachedSnapshot, error)
}

// Publisher recebe os snapshots novos (canal com o dispositivo companheiro)
type Publisher interface {
	Publish(snapshot *domain.SummarySnapshot)
	Reachable() bool
}

// CachedSnapshot é o snapshot persistido com a sua idade
type CachedSnapshot struct {
	Snapshot   *domain.SummarySnapshot `json:"snapshot"`
	AgeSeconds float64                 `json:"age_seconds"`
	Stale      bool                    `json:"stale"`
}

// flight é um ciclo em andamento compartilhado por todos os chamadores
type flight struct {
	id      string
	seq     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	waiters int

	snapshot *domain.SummarySnapshot
	err      error
}

type Service struct {
	aggregator aggregating.Aggregator
	store      repository.SnapshotRepository
	prober     connectivity.Prober
	publisher  Publisher
	policy     domain.RetryPolicy
	maxAge     time.Duration
	now        func() time.Time

	mu            sync.Mutex
	state         State
	lastOutcome   State
	flight        *flight
	seq           uint64
	committedSeq  uint64
	lastStartedAt time.Time
	lastSuccessAt time.Time
	lastErr       *SyncError
}

func NewService(
	cfg *config.Config,
	aggregator aggregating.Aggregator,
	store repository.SnapshotRepository,
	prober connectivity.Prober,
) *Service {
	return &Service{
		aggregator: aggregator,
		store:      store,
		prober:     prober,
		policy: domain.RetryPolicy{
			MaxAttempts: cfg.Sync.MaxAttempts,
			Backoff:     cfg.Sync.Backoff,
		},
		maxAge: cfg.Sync.SnapshotMaxAge,
		now:    time.Now,
		state:  StateIdle,
	}
}

// WithPublisher adiciona o destino dos snapshots novos
func (s *Service) WithPublisher(publisher Publisher) *Service {
	s.publisher = publisher
	return s
}

// Refresh dispara um ciclo ou se junta ao ciclo em andamento.
// Se o ctx do chamador terminar ele para de esperar; o último a sair cancela o ciclo.
func (s *Service) Refresh(ctx context.Context) (*domain.SummarySnapshot, error) {
	s.mu.Lock()
	f := s.flight
	s.mu.Unlock()

	if f == nil && !s.prober.Online(ctx) {
		err := NewSyncError(domain.ErrOffline, "", "")
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		logrus.Info("sync: sem conectividade, mantendo snapshot em cache")
		telemetry.ObserveRefresh(domain.ErrorKind(err), 0)
		return nil, err
	}

	s.mu.Lock()
	f = s.flight
	if f == nil {
		f = s.startLocked()
		if f == nil {
			s.mu.Unlock()
			return nil, NewSyncError(domain.ErrCancelled, "", "estado não permite iniciar um ciclo")
		}
	}
	f.waiters++
	s.mu.Unlock()

	select {
	case <-f.done:
		s.leave(f)
		return f.snapshot, f.err
	case <-ctx.Done():
		s.leave(f)
		return nil, NewSyncError(domain.ErrCancelled, f.id, ctx.Err().Error())
	}
}

// startLocked cria o ciclo e dispara a agregação. Chamado com s.mu travado.
func (s *Service) startLocked() *flight {
	if !s.transitionLocked(StateRunning) {
		return nil
	}

	s.seq++
	id := ulid.Make().String()
	runCtx, cancel := context.WithCancel(log.WithCycleID(context.Background(), id))
	f := &flight{
		id:     id,
		seq:    s.seq,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.flight = f
	s.lastStartedAt = s.now()

	logrus.WithFields(logrus.Fields{
		"cycle": f.id,
		"seq":   f.seq,
	}).Info("sync: ciclo de atualização iniciado")

	go s.run(runCtx, f)
	return f
}

func (s *Service) run(ctx context.Context, f *flight) {
	defer f.cancel()
	started := time.Now()
	logger := logrus.WithField("cycle", f.id)

	snapshot, err := s.aggregator.Aggregate(ctx, s.policy)
	if err == nil && snapshot == nil {
		err = errors.New("agregação sem snapshot")
	}

	if err == nil {
		err = s.persist(ctx, f, snapshot)
	}

	var syncErr *SyncError
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, domain.ErrCancelled) {
			err = domain.ErrCancelled
		}
		syncErr = NewSyncError(err, f.id, "")
		snapshot = nil
	}

	s.mu.Lock()
	if s.flight == f {
		s.flight = nil
		switch {
		case syncErr == nil:
			s.transitionLocked(StateSucceeded)
		case errors.Is(syncErr, domain.ErrCancelled):
			s.transitionLocked(StateCancelled)
		default:
			s.transitionLocked(StateFailed)
		}
		s.transitionLocked(StateIdle)
	}
	if syncErr == nil {
		s.lastSuccessAt = s.now()
		s.lastErr = nil
	} else if !errors.Is(syncErr, domain.ErrCancelled) || s.lastErr == nil {
		s.lastErr = syncErr
	}
	f.snapshot, f.err = snapshot, nil
	if syncErr != nil {
		f.err = syncErr
	}
	s.mu.Unlock()

	close(f.done)
	telemetry.ObserveRefresh(domain.ErrorKind(err), time.Since(started))

	if syncErr != nil {
		logger.WithError(syncErr).WithField("kind", domain.ErrorKind(err)).Warn("sync: ciclo terminou sem snapshot novo")
		return
	}

	telemetry.SetLastSuccess(snapshot.GeneratedAt)
	logger.WithFields(logrus.Fields{
		"duration": time.Since(started).String(),
		"windows":  len(snapshot.Windows),
		"deltas":   len(snapshot.Deltas),
	}).Info("sync: ciclo concluído")

	if s.publisher != nil {
		s.publisher.Publish(snapshot)
	}
}

// persist grava o snapshot uma única vez, apenas se o ciclo ainda for o vigente e não foi cancelado
func (s *Service) persist(ctx context.Context, f *flight, snapshot *domain.SummarySnapshot) error {
	s.mu.Lock()
	superseded := s.flight != f || f.seq <= s.committedSeq
	s.mu.Unlock()

	if superseded || ctx.Err() != nil {
		return domain.ErrCancelled
	}

	if err := s.store.Save(ctx, snapshot); err != nil {
		if ctx.Err() != nil {
			return domain.ErrCancelled
		}
		logrus.WithError(err).WithField("cycle", f.id).Error("sync: erro ao persistir snapshot")
		return errors.Join(ErrStoreWrite, err)
	}

	s.mu.Lock()
	if f.seq > s.committedSeq {
		s.committedSeq = f.seq
	}
	s.mu.Unlock()
	return nil
}

// leave tira o chamador da espera; sem ninguém esperando um ciclo em andamento é cancelado
func (s *Service) leave(f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}

	select {
	case <-f.done:
	default:
		logrus.WithField("cycle", f.id).Info("sync: nenhum chamador aguardando, cancelando ciclo")
		s.cancelLocked(f)
	}
}

// Cancel interrompe o ciclo em andamento, se houver. Nada é persistido.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flight == nil {
		return
	}

	logrus.WithField("cycle", s.flight.id).Info("sync: cancelamento solicitado")
	s.cancelLocked(s.flight)
}

// cancelLocked cancela e desacopla o ciclo para que um novo possa começar. Chamado com s.mu travado.
func (s *Service) cancelLocked(f *flight) {
	f.cancel()
	if s.flight != f {
		return
	}

	s.flight = nil
	s.transitionLocked(StateCancelled)
	s.transitionLocked(StateIdle)
	s.lastErr = NewSyncError(domain.ErrCancelled, f.id, "")
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		State:       s.state,
		LastOutcome: s.lastOutcome,
	}
	if s.flight != nil {
		status.Cycle = s.flight.id
		status.Waiters = s.flight.waiters
	}
	if !s.lastStartedAt.IsZero() {
		t := s.lastStartedAt
		status.LastStartedAt = &t
	}
	if !s.lastSuccessAt.IsZero() {
		t := s.lastSuccessAt
		status.LastSuccessAt = &t
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
		status.LastErrorCode = s.lastErr.Code
	}
	if s.publisher != nil {
		status.CompanionReachable = s.publisher.Reachable()
	}
	return status
}

// Cached lê o snapshot persistido sem tocar a rede; nil quando ainda não existe
func (s *Service) Cached(ctx context.Context) (*CachedSnapshot, error) {
	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, nil
	}

	now := s.now()
	return &CachedSnapshot{
		Snapshot:   snapshot,
		AgeSeconds: snapshot.Age(now).Seconds(),
		Stale:      !domain.IsFresh(snapshot, s.maxAge, now),
	}, nil
}
