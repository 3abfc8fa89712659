// Package health expone los endpoints de liveness y readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/cache"
	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
)

type Controller struct {
	store repository.Store
	cache cache.Client
}

func NewController(store repository.Store, c cache.Client) *Controller {
	return &Controller{store: store, cache: c}
}

// Healthz maneja GET /healthz: proceso vivo, nada más.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz: store y cache alcanzables.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"store": "ok", "cache": "ok"}
	status := http.StatusOK

	if err := c.store.Ping(ctx); err != nil {
		logger.From(r.Context()).Warn("store ping failed", logger.Err(err))
		checks["store"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if err := c.cache.Ping(ctx); err != nil {
		logger.From(r.Context()).Warn("cache ping failed", logger.Err(err))
		checks["cache"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeStatus(w, status, checks)
}

func writeStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
