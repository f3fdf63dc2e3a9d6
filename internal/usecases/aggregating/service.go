package aggregating

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/pkg/log"
	"github.com/vfg2006/adsense-sync-api/pkg/telemetry"
)

// Limite de consultas simultâneas à API de relatórios
const maxConcurrentFetches = 6

type Service struct {
	client      adsense.MetricsClient
	session     domain.Session
	loc         *time.Location
	taskTimeout time.Duration
	now         func() time.Time

	accountMu sync.Mutex
	accountID string
}

func NewService(cfg *config.Config, client adsense.MetricsClient, session domain.Session) *Service {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}

	return &Service{
		client:      client,
		session:     session,
		loc:         loc,
		taskTimeout: cfg.AdSense.FetchTimeout,
		now:         time.Now,
	}
}

// attemptResult é o resultado de uma rodada de fan-out
type attemptResult struct {
	snapshot     *domain.SummarySnapshot
	unauthorized bool
	err          error
}

func (s *Service) Aggregate(ctx context.Context, policy domain.RetryPolicy) (*domain.SummarySnapshot, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	refreshed := false
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := sleep(ctx, policy.Delay(attempt)); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
		}

		logger := log.ForContext(ctx).WithFields(log.Fields{
			"attempt":      attempt,
			"max_attempts": policy.MaxAttempts,
		})

		stale, err := s.session.Token(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
			}
			if errors.Is(err, domain.ErrUnauthorized) {
				return nil, sessionExpired(err)
			}
			logger.WithError(err).Warn("aggregate: falha ao obter token, nova tentativa")
			lastErr = err
			continue
		}

		result := s.attempt(ctx)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		}

		switch {
		case result.unauthorized:
			// uma única renovação por ciclo
			if refreshed || attempt == policy.MaxAttempts {
				logger.Error("aggregate: credencial recusada sem renovação disponível")
				return nil, domain.ErrSessionExpired
			}
			logger.Warn("aggregate: credencial recusada, renovando sessão")
			if _, err := s.session.Refresh(ctx, stale); err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
				}
				logger.WithError(err).Error("aggregate: falha ao renovar sessão")
				return nil, sessionExpired(err)
			}
			refreshed = true

		case result.err != nil:
			if errors.Is(result.err, domain.ErrNoAccount) || errors.Is(result.err, domain.ErrOffline) {
				return nil, result.err
			}
			logger.WithError(result.err).Warn("aggregate: tentativa sem dados, nova tentativa")
			lastErr = result.err

		default:
			return result.snapshot, nil
		}
	}

	logrus.WithError(lastErr).WithField("max_attempts", policy.MaxAttempts).Error("aggregate: tentativas esgotadas")
	return nil, fmt.Errorf("%w: %w", domain.ErrExhausted, lastErr)
}

// attempt resolve a conta e dispara todas as consultas em paralelo
func (s *Service) attempt(ctx context.Context) attemptResult {
	accountID, err := s.resolveAccount(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return attemptResult{unauthorized: true}
		}
		return attemptResult{err: err}
	}

	now := s.now().In(s.loc)
	windows := domain.PresetWindows(now, s.loc)

	results := make([]domain.WindowResult, len(windows))
	errs := make([]error, len(windows))
	var payments domain.PaymentsResult
	var unauthorized atomic.Bool

	semaphore := make(chan struct{}, maxConcurrentFetches)
	var wg sync.WaitGroup

	for i, window := range windows {
		wg.Add(1)
		go func(i int, window domain.MetricsWindow) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i], errs[i] = s.fetchWindow(ctx, accountID, window, &unauthorized)
		}(i, window)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		semaphore <- struct{}{}
		defer func() { <-semaphore }()

		payments = s.fetchPayments(ctx, accountID, &unauthorized)
	}()

	wg.Wait()

	if unauthorized.Load() {
		return attemptResult{unauthorized: true}
	}

	byName := make(map[domain.WindowName]domain.WindowResult, len(results))
	var firstErr error
	available := 0
	for i, r := range results {
		byName[r.Window.Name] = r
		if r.Available() {
			available++
		} else if firstErr == nil {
			firstErr = errs[i]
		}
	}

	if available == 0 {
		return attemptResult{err: fmt.Errorf("nenhuma janela disponível: %w", firstErr)}
	}

	if available < len(results) {
		logrus.WithFields(logrus.Fields{
			"available": available,
			"total":     len(results),
		}).Warn("aggregate: snapshot parcial")
	}

	snapshot := domain.NewSummarySnapshot(accountID, now, byName, ComputeDeltas(byName), payments)
	return attemptResult{snapshot: snapshot}
}

func (s *Service) fetchWindow(ctx context.Context, accountID string, window domain.MetricsWindow, unauthorized *atomic.Bool) (domain.WindowResult, error) {
	taskCtx, cancel := s.withTaskTimeout(ctx)
	defer cancel()

	start := time.Now()
	record, err := s.client.Fetch(taskCtx, accountID, window)
	if err == nil && record == nil {
		err = domain.NewFetchError(domain.ErrDecoding, window.Name, "registro vazio")
	}
	err = taskError(taskCtx, ctx, window.Name, err)

	telemetry.ObserveFetch(string(window.Name), domain.ErrorKind(err), time.Since(start))

	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			unauthorized.Store(true)
		}
		log.ForContext(ctx).WithFields(log.Fields{
			"window": window.String(),
			"kind":   domain.ErrorKind(err),
		}).Warn("aggregate: janela indisponível")
		return domain.UnavailableWindow(window, err), err
	}

	return domain.AvailableWindow(window, *record), nil
}

func (s *Service) fetchPayments(ctx context.Context, accountID string, unauthorized *atomic.Bool) domain.PaymentsResult {
	taskCtx, cancel := s.withTaskTimeout(ctx)
	defer cancel()

	start := time.Now()
	payments, err := s.client.FetchPayments(taskCtx, accountID)
	if err == nil && payments == nil {
		err = domain.NewFetchError(domain.ErrDecoding, "payments", "resposta vazia")
	}
	err = taskError(taskCtx, ctx, "payments", err)

	telemetry.ObserveFetch("payments", domain.ErrorKind(err), time.Since(start))

	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			unauthorized.Store(true)
		}
		return domain.PaymentsResult{Status: domain.WindowUnavailable, Reason: err.Error()}
	}

	return domain.PaymentsResult{Status: domain.WindowAvailable, Payments: payments}
}

// taskError trata o estouro do timeout da tarefa como timeout daquela janela
func taskError(taskCtx, parent context.Context, window domain.WindowName, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() == nil && errors.Is(taskCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
		return domain.NewFetchError(domain.ErrTimeout, window, err.Error())
	}
	return err
}

func (s *Service) withTaskTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.taskTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.taskTimeout)
}

func (s *Service) resolveAccount(ctx context.Context) (string, error) {
	s.accountMu.Lock()
	defer s.accountMu.Unlock()

	if s.accountID != "" {
		return s.accountID, nil
	}

	accountID, err := s.client.ResolveAccount(ctx)
	if err != nil {
		return "", err
	}
	if accountID == "" {
		return "", domain.ErrNoAccount
	}

	logrus.WithField("account_id", accountID).Info("aggregate: conta AdSense resolvida")
	s.accountID = accountID
	return accountID, nil
}

// FetchRange consulta uma janela explícita, renovando a sessão uma vez em caso de 401
func (s *Service) FetchRange(ctx context.Context, window domain.MetricsWindow) (*domain.MetricRecord, error) {
	for attempt := 1; ; attempt++ {
		stale, err := s.session.Token(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return nil, sessionExpired(err)
			}
			return nil, err
		}

		accountID, err := s.resolveAccount(ctx)
		if err == nil {
			var record *domain.MetricRecord
			record, err = s.client.Fetch(ctx, accountID, window)
			if err == nil {
				return record, nil
			}
		}

		if !errors.Is(err, domain.ErrUnauthorized) || attempt > 1 {
			return nil, err
		}

		if _, refreshErr := s.session.Refresh(ctx, stale); refreshErr != nil {
			return nil, sessionExpired(refreshErr)
		}
	}
}

// ComputeDeltas compara as janelas de cada par, apenas quando os dois lados estão disponíveis
func ComputeDeltas(windows map[domain.WindowName]domain.WindowResult) map[domain.DeltaName]domain.DeltaResult {
	deltas := make(map[domain.DeltaName]domain.DeltaResult, len(domain.DeltaPairs))

	for _, pair := range domain.DeltaPairs {
		current, ok := windows[pair.Current]
		if !ok || !current.Available() {
			continue
		}
		previous, ok := windows[pair.Previous]
		if !ok || !previous.Available() {
			continue
		}
		deltas[pair.Name] = domain.Compare(current.Record.Earnings, previous.Record.Earnings)
	}

	return deltas
}

func sessionExpired(err error) error {
	if errors.Is(err, domain.ErrSessionExpired) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrSessionExpired, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
