// Package http serves /meta: liveness, readiness against the stores, build info and engine constants
package http

import (
	"context"
	"net/http"
	"time"

	"namecensus/internal/core/duplicates"
	"namecensus/internal/core/frequency"
	"namecensus/internal/core/normalize"
	"namecensus/internal/core/version"
	"namecensus/internal/modkit/httpkit"
	"namecensus/internal/platform/store"
)

// Deps are the handler dependencies; a store that is not a store.Pinger is reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	ReadyWithin time.Duration
}

type handlers struct{ deps Deps }

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.ReadyWithin <= 0 {
		d.ReadyWithin = 2 * time.Second
	}
	h := &handlers{deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/engine", h.engine)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok" example:"true"`
	Service string `json:"service" example:"namecensus-api"`
	Now     string `json:"now" example:"2026-10-17T09:00:00Z"`
}

// ReadyCheck is one store probe; status is ok, fail or skipped
type ReadyCheck struct {
	Name   string `json:"name" example:"pg"`
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse is ok when every configured store answers, degraded when postgres is not configured, fail otherwise
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
}

// ServiceResponse reports start time and uptime in seconds
type ServiceResponse struct {
	Name    string `json:"name" example:"namecensus-api"`
	Started string `json:"started" example:"2026-10-17T08:55:00Z"`
	Uptime  int64  `json:"uptime" example:"300"`
}

// EngineResponse reports the fixed analysis parameters
type EngineResponse struct {
	CoverageThreshold float64           `json:"coverage_threshold" example:"0.8"`
	Modes             []string          `json:"modes"`
	Pairs             []string          `json:"pairs"`
	Build             version.BuildInfo `json:"build"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.deps.ServiceName, Now: now()}, nil
}

// @Summary Readiness with store pings
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyWithin)
	defer cancel()

	probe := func(name string, s any) ReadyCheck {
		p, ok := s.(store.Pinger)
		if !ok || p == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		if err := p.Ping(ctx); err != nil {
			return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
		}
		return ReadyCheck{Name: name, Status: "ok"}
	}
	pg, ch := probe("pg", h.deps.PG), probe("ch", h.deps.CH)

	status := "ok"
	switch {
	case pg.Status == "fail" || ch.Status == "fail":
		status = "fail"
	case pg.Status == "skipped":
		status = "degraded"
	}
	return ReadyResponse{Status: status, Checks: []ReadyCheck{pg, ch}}, nil
}

// @Summary Build info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) { return version.Info(), nil }

// @Summary Service uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
	}, nil
}

// @Summary Coverage threshold, name modes and duplicate pairs
// @Tags Meta
// @Produce json
// @Success 200 {object} EngineResponse
// @Router /meta/engine [get]
func (h *handlers) engine(_ *http.Request) (any, error) {
	var pairs []string
	for _, p := range duplicates.Pairs() {
		pairs = append(pairs, p.String())
	}
	return EngineResponse{
		CoverageThreshold: frequency.CoverageThreshold,
		Modes:             []string{normalize.Exact.String(), normalize.Normalized.String()},
		Pairs:             pairs,
		Build:             version.Info(),
	}, nil
}
