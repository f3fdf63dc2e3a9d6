package handler

import (
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/vfg2006/adsense-sync-api/internal/api/handler/router"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/aggregating"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/authenticating"
	"github.com/vfg2006/adsense-sync-api/pkg/middleware"
	"github.com/vfg2006/adsense-sync-api/pkg/telemetry"
)

func Healthcheck(checks ...HealthCheck) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(checks...),
		},
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: telemetry.Handler(),
		},
	}
}

func Devices(service authenticating.Authenticator) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/devices/token",
			Method:  http.MethodPost,
			Handler: IssueDeviceToken(service),
		},
	}
}

func Sync(services SyncServices) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/snapshot",
			Method:      http.MethodGet,
			Handler:     GetSnapshot(services.Coordinator),
			Middlewares: []alice.Constructor{middleware.AllDevices()},
		},
		{
			Path:        "/v1/sync/status",
			Method:      http.MethodGet,
			Handler:     GetSyncStatus(services),
			Middlewares: []alice.Constructor{middleware.AllDevices()},
		},
		{
			Path:        "/v1/sync/refresh",
			Method:      http.MethodPost,
			Handler:     TriggerRefresh(services),
			Middlewares: []alice.Constructor{middleware.AllDevices()},
		},
		{
			Path:        "/v1/sync/refresh",
			Method:      http.MethodDelete,
			Handler:     CancelRefresh(services),
			Middlewares: []alice.Constructor{middleware.AppOnly()},
		},
	}
}

func Metrics(service aggregating.Aggregator, loc *time.Location) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/metrics",
			Method:      http.MethodGet,
			Handler:     GetMetricsRange(service, loc),
			Middlewares: []alice.Constructor{middleware.AppOnly()},
		},
	}
}

func Companion(serveWS http.HandlerFunc) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/companion/ws",
			Method:      http.MethodGet,
			Handler:     serveWS,
			Middlewares: []alice.Constructor{middleware.AllDevices()},
		},
	}
}
