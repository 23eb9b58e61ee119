package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler exposes net/http/pprof at prefix and below, GET only
// off by default; CORE_API_PROFILER turns it on
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	pprof := stdhttp.StripPrefix(prefix, mw.Profiler())
	for _, p := range []string{prefix, prefix + "/*"} {
		r.Get(p, pprof.ServeHTTP)
	}
}
