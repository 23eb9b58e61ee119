// Package http provides http transport for periods
package http

import (
	stdhttp "net/http"

	"namecensus/internal/modkit/httpkit"
	"namecensus/internal/services/periods/domain"
)

// Register mounts period endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{key}", h.get)
	httpkit.Get(r, "/{key}/status", h.status)
	httpkit.Post(r, "/{key}/ingest", h.ingest)
	httpkit.GetQuery[domain.RecordsQuery](r, "/{key}/records/{table}", h.records)
}

type handlers struct{ svc domain.ServicePort }

// @Summary List catalog periods with their stored state
// @Tags Periods
// @Produce json
// @Success 200 {array} domain.PeriodView "ok"
// @Router /periods [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.svc.List(r.Context())
}

// @Summary Get one period
// @Tags Periods
// @Produce json
// @Param key path string true "Period key"
// @Success 200 {object} domain.PeriodView "ok"
// @Failure 404 {object} httpkit.Envelope "unknown period"
// @Router /periods/{key} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.Param(r, "key"))
}

// @Summary Which record tables exist for a period
// @Tags Periods
// @Produce json
// @Param key path string true "Period key"
// @Success 200 {object} domain.Status "ok"
// @Router /periods/{key}/status [get]
func (h *handlers) status(r *stdhttp.Request) (any, error) {
	return h.svc.Status(r.Context(), httpkit.Param(r, "key"))
}

// @Summary Fetch, clean and store the rows of a period
// @Tags Periods
// @Produce json
// @Param key path string true "Period key"
// @Success 200 {object} domain.IngestResult "ok"
// @Failure 400 {object} httpkit.Envelope "no data found in sheet"
// @Failure 409 {object} httpkit.Envelope "ingest already running"
// @Failure 503 {object} httpkit.Envelope "source unavailable"
// @Router /periods/{key}/ingest [post]
func (h *handlers) ingest(r *stdhttp.Request) (any, error) {
	return h.svc.Ingest(r.Context(), httpkit.Param(r, "key"))
}

// @Summary Page through the stored rows of a period
// @Tags Periods
// @Produce json
// @Param key path string true "Period key"
// @Param table path string true "original, included or excluded"
// @Param page query int false "1 based page" default(1)
// @Param per_page query int false "rows per page" default(100)
// @Param sort_by query string false "position, name, day, month, year or exclusion_reason" default(position)
// @Param sort_order query string false "asc or desc" default(asc)
// @Success 200 {object} domain.RecordPage "ok"
// @Router /periods/{key}/records/{table} [get]
func (h *handlers) records(r *stdhttp.Request, in domain.RecordsQuery) (any, error) {
	t, err := domain.ParseTableType(httpkit.Param(r, "table"))
	if err != nil {
		return nil, err
	}
	return h.svc.Records(r.Context(), httpkit.Param(r, "key"), t, in)
}
