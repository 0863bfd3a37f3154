package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "leadrelay/internal/api/context"
	"leadrelay/internal/api/handlers"
	"leadrelay/internal/api/middleware"
)

type Dependencies struct {
	IngestHandler  *handlers.IngestHandler
	SourceHandler  *handlers.SourceHandler
	MappingHandler *handlers.MappingHandler
	LogHandler     *handlers.LogHandler
	TokenHandler   *handlers.TokenHandler
	HealthHandler  *handlers.HealthHandler
	AdminAuth      *middleware.AdminAuth
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	// Public ingestion endpoint, one per named source
	router.POST("/inbound/:source_name", wrap(deps.IngestHandler.Handle))

	router.GET("/healthz", wrap(deps.HealthHandler.Check))

	admin := deps.AdminAuth

	// Source management
	router.GET("/api/sources", chain(deps.SourceHandler.List, admin.Handle))
	router.POST("/api/sources", chain(deps.SourceHandler.Create, admin.Handle))
	router.PATCH("/api/sources/:source_id", chain(deps.SourceHandler.UpdateFeedURL, admin.Handle))

	// Mapping rules (replaced as a set)
	router.GET("/api/mappings/:source_id", chain(deps.MappingHandler.ListBySource, admin.Handle))
	router.POST("/api/mappings", chain(deps.MappingHandler.Replace, admin.Handle))

	// Request logs
	router.GET("/api/logs", chain(deps.LogHandler.List, admin.Handle))
	router.GET("/api/logs/:log_id", chain(deps.LogHandler.Get, admin.Handle))

	// Refresh token seeding (out-of-band recovery)
	router.PUT("/api/token", chain(deps.TokenHandler.Set, admin.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
