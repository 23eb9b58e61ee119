// Package http serves export downloads as attachments
package http

import (
	"bytes"
	"mime"
	stdhttp "net/http"
	"strconv"

	"namecensus/internal/adapters/export"
	"namecensus/internal/core/normalize"
	"namecensus/internal/modkit/httpkit"
	perr "namecensus/internal/platform/errors"
	phttp "namecensus/internal/platform/net/http"
	"namecensus/internal/platform/net/http/bind"
	analyticshttp "namecensus/internal/services/analytics/http"
	comparisondom "namecensus/internal/services/comparison/domain"
	"namecensus/internal/services/export/domain"
	periodsdom "namecensus/internal/services/periods/domain"
)

// Register mounts download endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	r.Get("/periods/{key}/records/{table}", h.serve(h.records))
	r.Get("/analytics/{key}/frequencies", h.serve(h.frequencies))
	r.Get("/analytics/{key}/duplicates/{pair}", h.serve(h.duplicates))
	r.Get("/comparisons/{a}/{b}/common", h.serve(h.common))
	r.Get("/comparisons/{a}/{b}/unique/{side}", h.serve(h.unique))
}

type handlers struct{ svc domain.ServicePort }

type build func(r *stdhttp.Request, q domain.Query, f export.Format) (domain.Download, error)

// serve renders into memory first so a failure still yields an error envelope
func (h *handlers) serve(fn build) phttp.Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		q, err := bind.ParseQuery[domain.Query](r)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		f, err := export.ParseFormat(q.Format)
		if err != nil {
			phttp.RespondError(w, r, perr.WithField(err, "format"))
			return
		}
		d, err := fn(r, q, f)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := h.svc.Render(&buf, d); err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// @Summary Download the stored rows of a period
// @Tags Exports
// @Produce octet-stream
// @Param key path string true "Period key"
// @Param table path string true "original, included or excluded"
// @Param format query string false "csv, xlsx or json" default(csv)
// @Success 200 {file} file "attachment"
// @Router /exports/periods/{key}/records/{table} [get]
func (h *handlers) records(r *stdhttp.Request, _ domain.Query, f export.Format) (domain.Download, error) {
	t, err := periodsdom.ParseTableType(httpkit.Param(r, "table"))
	if err != nil {
		return domain.Download{}, err
	}
	return h.svc.Records(r.Context(), httpkit.Param(r, "key"), t, f)
}

// @Summary Download a name ranking
// @Tags Exports
// @Produce octet-stream
// @Param key path string true "Period key"
// @Param mode query string false "exact or normalized" default(exact)
// @Param top80_only query bool false "only names inside the coverage set"
// @Param format query string false "csv, xlsx or json" default(csv)
// @Success 200 {file} file "attachment"
// @Router /exports/analytics/{key}/frequencies [get]
func (h *handlers) frequencies(r *stdhttp.Request, q domain.Query, f export.Format) (domain.Download, error) {
	mode, _ := normalize.ParseMode(q.Mode)
	return h.svc.Frequencies(r.Context(), httpkit.Param(r, "key"), mode, q.Top80Only, f)
}

// @Summary Download the duplicate groups of one pair
// @Tags Exports
// @Produce octet-stream
// @Param key path string true "Period key"
// @Param pair path string true "duplicate pair such as name_year"
// @Param format query string false "csv, xlsx or json" default(csv)
// @Success 200 {file} file "attachment"
// @Router /exports/analytics/{key}/duplicates/{pair} [get]
func (h *handlers) duplicates(r *stdhttp.Request, _ domain.Query, f export.Format) (domain.Download, error) {
	p, err := analyticshttp.ParsePair(httpkit.Param(r, "pair"))
	if err != nil {
		return domain.Download{}, err
	}
	return h.svc.Duplicates(r.Context(), httpkit.Param(r, "key"), p, f)
}

// @Summary Download the common names of a compared pair
// @Tags Exports
// @Produce octet-stream
// @Param a path string true "First period"
// @Param b path string true "Second period"
// @Param top80 query string false "a, b or both"
// @Param format query string false "csv, xlsx or json" default(csv)
// @Success 200 {file} file "attachment"
// @Router /exports/comparisons/{a}/{b}/common [get]
func (h *handlers) common(r *stdhttp.Request, q domain.Query, f export.Format) (domain.Download, error) {
	return h.svc.Common(r.Context(), httpkit.Param(r, "a"), httpkit.Param(r, "b"), q.Top80, f)
}

// @Summary Download the records unique to one side of a compared pair
// @Tags Exports
// @Produce octet-stream
// @Param a path string true "First period"
// @Param b path string true "Second period"
// @Param side path string true "a or b"
// @Param top80_only query bool false "only names inside the side's coverage set"
// @Param format query string false "csv, xlsx or json" default(csv)
// @Success 200 {file} file "attachment"
// @Router /exports/comparisons/{a}/{b}/unique/{side} [get]
func (h *handlers) unique(r *stdhttp.Request, q domain.Query, f export.Format) (domain.Download, error) {
	side, err := comparisondom.ParseSide(httpkit.Param(r, "side"))
	if err != nil {
		return domain.Download{}, err
	}
	return h.svc.Unique(r.Context(), httpkit.Param(r, "a"), httpkit.Param(r, "b"), side, q.Top80Only, f)
}
