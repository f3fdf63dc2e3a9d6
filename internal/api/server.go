package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/internal/api/handler"
	"github.com/vfg2006/adsense-sync-api/internal/api/handler/router"
	"github.com/vfg2006/adsense-sync-api/internal/companion"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/aggregating"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/authenticating"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/syncing"
	"github.com/vfg2006/adsense-sync-api/pkg/middleware"
)

const shutdownTimeout = 15 * time.Second

// Dependencies reúne o que as rotas precisam; tudo é montado no main
type Dependencies struct {
	Coordinator   syncing.Coordinator
	Aggregator    aggregating.Aggregator
	Authenticator authenticating.Authenticator
	Hub           *companion.Hub
	Scheduler     handler.ManualSyncer
	HealthChecks  []handler.HealthCheck
}

type Server struct {
	httpServer *http.Server
	onShutdown []func()
}

func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	rt := router.New(
		router.WithRoutes(handler.Healthcheck(deps.HealthChecks...)...),
		router.WithRoutes(handler.Devices(deps.Authenticator)...),
		router.WithRoutes(handler.Sync(handler.SyncServices{
			Coordinator: deps.Coordinator,
			Scheduler:   deps.Scheduler,
			Peers:       deps.Hub,
		})...),
		router.WithRoutes(handler.Metrics(deps.Aggregator, loc)...),
		router.WithRoutes(handler.Companion(deps.Hub.ServeWS)...),
	)

	chain := alice.New(
		middleware.LogPanicMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.Cors(cfg.Server.CorsOrigins...),
		middleware.AuthMiddleware(deps.Authenticator),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           chain.Then(rt),
			ReadHeaderTimeout: 2 * time.Second,
		},
	}, nil
}

// OnShutdown registra uma ação executada depois que o HTTP parou de aceitar requisições
func (s *Server) OnShutdown(fn func()) {
	s.onShutdown = append(s.onShutdown, fn)
}

// Run bloqueia até um sinal de término ou o cancelamento de ctx
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("address", s.httpServer.Addr).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		logrus.WithField("signal", sig.String()).Info("Sinal de término recebido")
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	case err := <-errCh:
		logrus.WithError(err).Error("Erro durante a execução do servidor")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.Shutdown(shutdownCtx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	logrus.WithField("timeout", shutdownTimeout.String()).Info("Iniciando desligamento gracioso do servidor")

	err := s.httpServer.Shutdown(ctx)

	for _, fn := range s.onShutdown {
		fn()
	}

	if err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor desligado com sucesso")
	return nil
}
