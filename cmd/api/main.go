package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/infrastructure/connectivity"
	"github.com/vfg2006/adsense-sync-api/infrastructure/database/sqldb"
	"github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense"
	"github.com/vfg2006/adsense-sync-api/infrastructure/integrator/adsense/adsenseclient"
	"github.com/vfg2006/adsense-sync-api/infrastructure/repository"
	"github.com/vfg2006/adsense-sync-api/internal/api"
	"github.com/vfg2006/adsense-sync-api/internal/api/handler"
	"github.com/vfg2006/adsense-sync-api/internal/companion"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/scheduler"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/aggregating"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/authenticating"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/syncing"
	"github.com/vfg2006/adsense-sync-api/pkg/log"
)

const tokenRefreshInterval = 30 * time.Minute

func main() {
	chdirToSource()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	log.Setup(cfg.App.LogLevel)
	logrus.Infof("Nível de log configurado para: %s", logrus.GetLevel())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := dbconn(ctx, cfg.Database)
	defer conn.Close()

	snapshotRepo := repository.NewSharedStateRepository(conn)

	authenticator := authenticating.NewService(cfg)

	prober := newProber(cfg)

	tokenManager := adsenseclient.NewTokenManager(cfg)
	go tokenManager.StartAutoRefresh(tokenRefreshInterval)
	defer tokenManager.StopAutoRefresh()

	adsenseClient := adsenseclient.NewClient(cfg, tokenManager, prober)
	adsenseIntegrator := adsense.New(cfg, adsenseClient)

	aggregator := aggregating.NewService(cfg, adsenseIntegrator, tokenManager)

	hub := companion.NewHub()
	coordinator := syncing.NewService(cfg, aggregator, snapshotRepo, prober).WithPublisher(hub)
	hub.WithSource(coordinator)
	go hub.Run(ctx)

	summarySyncService := scheduler.NewSummarySyncService(coordinator, cfg)
	if err := summarySyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de atualização do resumo")
	} else {
		logrus.Info("Agendador de atualização do resumo iniciado com sucesso")
	}

	server, err := api.New(cfg, api.Dependencies{
		Coordinator:   coordinator,
		Aggregator:    aggregator,
		Authenticator: authenticator,
		Hub:           hub,
		Scheduler:     summarySyncService,
		HealthChecks: []handler.HealthCheck{
			{Name: "database", Check: conn.Ping},
			{Name: "shared_state", Check: repository.ReadableCheck(snapshotRepo)},
		},
	})
	if err != nil {
		logrus.Fatal(err)
	}

	// o ciclo em andamento não deve gravar depois do desligamento
	server.OnShutdown(coordinator.Cancel)

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// chdirToSource faz o .env ao lado do binário em desenvolvimento ser encontrado
func chdirToSource() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)
}

func newProber(cfg *config.Config) connectivity.Prober {
	if cfg.Connectivity.ProbeAddr == "" {
		logrus.Info("Checagem de conectividade desligada")
		return connectivity.Static(true)
	}
	return connectivity.NewDialProbe(cfg)
}

// dbconn abre o armazenamento compartilhado e garante o schema
func dbconn(ctx context.Context, dbConfig config.Database) *sqldb.Connection {
	conn, err := sqldb.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao armazenamento compartilhado")
	}

	if err := conn.Migrate(ctx); err != nil {
		logrus.WithError(err).Fatal("Erro ao preparar schema do armazenamento compartilhado")
	}

	logrus.WithField("driver", dbConfig.Driver).Info("Armazenamento compartilhado pronto")
	return conn
}
