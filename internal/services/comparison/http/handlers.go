// Package http provides http transport for comparisons
package http

import (
	stdhttp "net/http"

	"namecensus/internal/modkit/httpkit"
	"namecensus/internal/services/comparison/domain"
)

// Register mounts comparison endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.PostJSON(r, "/", h.run)
	httpkit.Get(r, "/{a}/{b}/summary", h.summary)
	httpkit.GetQuery[domain.CommonQuery](r, "/{a}/{b}/common", h.common)
	httpkit.GetQuery[domain.UniqueQuery](r, "/{a}/{b}/unique/{side}", h.unique)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Compare two analyzed periods
// @Tags Comparisons
// @Accept json
// @Produce json
// @Param body body domain.RunRequest true "Ordered period pair"
// @Success 200 {object} domain.Summary "ok"
// @Failure 400 {object} httpkit.Envelope "same period twice"
// @Failure 409 {object} httpkit.Envelope "period not analyzed"
// @Router /comparisons [post]
func (h *handlers) run(r *stdhttp.Request, in domain.RunRequest) (any, error) {
	return h.svc.Run(r.Context(), in.PeriodA, in.PeriodB)
}

// @Summary Summary of a stored comparison
// @Tags Comparisons
// @Produce json
// @Param a path string true "First period"
// @Param b path string true "Second period"
// @Success 200 {object} domain.Summary "ok"
// @Failure 409 {object} httpkit.Envelope "pair not compared"
// @Router /comparisons/{a}/{b}/summary [get]
func (h *handlers) summary(r *stdhttp.Request) (any, error) {
	return h.svc.Summary(r.Context(), httpkit.Param(r, "a"), httpkit.Param(r, "b"))
}

// @Summary Names present in both periods
// @Tags Comparisons
// @Produce json
// @Param a path string true "First period"
// @Param b path string true "Second period"
// @Param top80 query string false "a, b or both"
// @Param page query int false "1 based page" default(1)
// @Param per_page query int false "rows per page" default(100)
// @Success 200 {object} domain.CommonPage "ok"
// @Router /comparisons/{a}/{b}/common [get]
func (h *handlers) common(r *stdhttp.Request, in domain.CommonQuery) (any, error) {
	return h.svc.Common(r.Context(), httpkit.Param(r, "a"), httpkit.Param(r, "b"), in)
}

// @Summary Records whose name never occurs in the other period
// @Tags Comparisons
// @Produce json
// @Param a path string true "First period"
// @Param b path string true "Second period"
// @Param side path string true "a or b"
// @Param top80_only query bool false "only names inside the side's coverage set"
// @Param page query int false "1 based page" default(1)
// @Param per_page query int false "rows per page" default(100)
// @Success 200 {object} domain.UniquePage "ok"
// @Router /comparisons/{a}/{b}/unique/{side} [get]
func (h *handlers) unique(r *stdhttp.Request, in domain.UniqueQuery) (any, error) {
	side, err := domain.ParseSide(httpkit.Param(r, "side"))
	if err != nil {
		return nil, err
	}
	return h.svc.Unique(r.Context(), httpkit.Param(r, "a"), httpkit.Param(r, "b"), side, in)
}
