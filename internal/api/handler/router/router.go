package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
)

// Route é um endpoint com os middlewares que só valem para ele
type Route struct {
	Path        string
	Method      string
	Handler     http.Handler
	Middlewares []alice.Constructor
}

type Router struct {
	router *httprouter.Router
}

type ConfigRouter func(router *Router)

func WithRoutes(routes ...Route) ConfigRouter {
	return func(router *Router) {
		router.AddRoutes(routes...)
	}
}

func New(configs ...ConfigRouter) Router {
	rt := httprouter.New()
	rt.NotFound = errorHandler(apiErrors.ErrNotFound, "Rota não encontrada")
	rt.MethodNotAllowed = errorHandler(apiErrors.ErrMethodNotAllowed, "Método não permitido")

	router := &Router{router: rt}
	for _, config := range configs {
		config(router)
	}

	return *router
}

func (r Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// AddRoutes registra as rotas; o primeiro middleware da lista é o mais externo
func (r Router) AddRoutes(routes ...Route) {
	for _, route := range routes {
		r.router.Handler(route.Method, route.Path, alice.New(route.Middlewares...).Then(route.Handler))

		logrus.WithFields(logrus.Fields{
			"method":      route.Method,
			"path":        route.Path,
			"middlewares": len(route.Middlewares),
		}).Debug("router: rota registrada")
	}
}

func errorHandler(code, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiErrors.WriteError(w, code, message, nil)
	})
}
