// Package http provides http transport for analytics
package http

import (
	stdhttp "net/http"

	"namecensus/internal/core/duplicates"
	"namecensus/internal/modkit/httpkit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/services/analytics/domain"
)

// Register mounts analytics endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.Post(r, "/{key}/run", h.run)
	httpkit.Get(r, "/{key}/summary", h.summary)
	httpkit.GetQuery[domain.FrequencyQuery](r, "/{key}/frequencies", h.frequencies)
	httpkit.GetQuery[domain.GroupQuery](r, "/{key}/duplicates/{pair}", h.duplicates)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Analyze the included records of a period
// @Tags Analytics
// @Produce json
// @Param key path string true "Period key"
// @Success 200 {object} domain.Summary "ok"
// @Failure 404 {object} httpkit.Envelope "unknown period"
// @Failure 409 {object} httpkit.Envelope "period not ingested"
// @Router /analytics/{key}/run [post]
func (h *handlers) run(r *stdhttp.Request) (any, error) {
	return h.svc.Run(r.Context(), httpkit.Param(r, "key"))
}

// @Summary Summary of the last analysis of a period
// @Tags Analytics
// @Produce json
// @Param key path string true "Period key"
// @Success 200 {object} domain.Summary "ok"
// @Failure 409 {object} httpkit.Envelope "period not analyzed"
// @Router /analytics/{key}/summary [get]
func (h *handlers) summary(r *stdhttp.Request) (any, error) {
	return h.svc.Summary(r.Context(), httpkit.Param(r, "key"))
}

// @Summary Ranked first names of a period
// @Tags Analytics
// @Produce json
// @Param key path string true "Period key"
// @Param mode query string false "exact or normalized" default(exact)
// @Param page query int false "1 based page" default(1)
// @Param per_page query int false "rows per page" default(100)
// @Param top80_only query bool false "only names inside the 80% coverage set"
// @Success 200 {object} domain.FrequencyPage "ok"
// @Router /analytics/{key}/frequencies [get]
func (h *handlers) frequencies(r *stdhttp.Request, in domain.FrequencyQuery) (any, error) {
	return h.svc.Frequencies(r.Context(), httpkit.Param(r, "key"), in)
}

// @Summary Duplicate groups of one field pair
// @Tags Analytics
// @Produce json
// @Param key path string true "Period key"
// @Param pair path string true "name_year, name_month, name_day, year_month, year_day or month_day"
// @Param page query int false "1 based page" default(1)
// @Param per_page query int false "groups per page" default(50)
// @Success 200 {object} domain.GroupPage "ok"
// @Router /analytics/{key}/duplicates/{pair} [get]
func (h *handlers) duplicates(r *stdhttp.Request, in domain.GroupQuery) (any, error) {
	p, err := ParsePair(httpkit.Param(r, "pair"))
	if err != nil {
		return nil, err
	}
	return h.svc.Duplicates(r.Context(), httpkit.Param(r, "key"), p, in)
}

// ParsePair resolves a duplicate pair name or fails with InvalidArgument
func ParsePair(s string) (duplicates.Pair, error) {
	p, ok := duplicates.ParsePair(s)
	if !ok {
		return p, perr.WithField(perr.InvalidArgf("unknown pair %q", s), "pair")
	}
	return p, nil
}
