package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/syncing"
)

// SummarySyncConfig representa a configuração do agendador de atualização do resumo
type SummarySyncConfig struct {
	CronSchedule string
	SyncEnabled  bool
	CycleTimeout time.Duration
}

// SummarySyncService agenda os ciclos de atualização periódicos do snapshot
type SummarySyncService struct {
	scheduler   *gocron.Scheduler
	config      SummarySyncConfig
	coordinator syncing.Coordinator

	mu                  sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastSyncError       string
}

func NewSummarySyncService(coordinator syncing.Coordinator, appConfig *config.Config) *SummarySyncService {
	syncConfig := SummarySyncConfig{
		CronSchedule: appConfig.Sync.CronSchedule,
		SyncEnabled:  appConfig.Sync.Enabled,
		CycleTimeout: 5 * time.Minute,
	}

	loc, err := appConfig.Location()
	if err != nil {
		loc = time.Local
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": syncConfig.CronSchedule,
		"sync_enabled":  syncConfig.SyncEnabled,
		"timezone":      loc.String(),
	}).Info("Configuração do agendador de atualização carregada")

	return &SummarySyncService{
		scheduler:   gocron.NewScheduler(loc),
		config:      syncConfig,
		coordinator: coordinator,
	}
}

// Start inicia o agendador
func (s *SummarySyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Atualização periódica desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de atualização do resumo")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar atualização do resumo: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de atualização do resumo")
		s.scheduler.Stop()
	}()

	return nil
}

// runSync executa um ciclo; chamadas concorrentes se juntam ao ciclo em andamento no coordenador
func (s *SummarySyncService) runSync(ctx context.Context) {
	startTime := time.Now()
	s.mu.Lock()
	s.lastSyncStartedAt = startTime
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.CycleTimeout)
	defer cancel()

	snapshot, err := s.coordinator.Refresh(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncCompletedAt = time.Now()

	if err != nil {
		s.lastSyncError = err.Error()
		entry := logrus.WithError(err).WithField("duration", time.Since(startTime).String())
		if errors.Is(err, domain.ErrOffline) {
			entry.Info("Atualização agendada ignorada: sem conectividade")
			return
		}
		entry.Error("Erro na atualização agendada do resumo")
		return
	}

	s.lastSyncError = ""
	logrus.WithFields(logrus.Fields{
		"duration":     time.Since(startTime).String(),
		"generated_at": snapshot.GeneratedAt,
	}).Info("Atualização agendada do resumo concluída")
}

// TriggerManualSync dispara uma atualização fora do agendamento
func (s *SummarySyncService) TriggerManualSync() {
	logrus.Info("Iniciando atualização manual do resumo")
	go s.runSync(context.Background())
}

// GetStatus retorna o status atual do agendador
func (s *SummarySyncService) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
		"last_sync_error":        s.lastSyncError,
	}
}
