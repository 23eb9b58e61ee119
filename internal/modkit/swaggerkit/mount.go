// Package swaggerkit exposes the API reference: the swagger UI plus a decorated OpenAPI 3 document
package swaggerkit

import (
	"net/http"

	phttp "namecensus/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	base    = "/api/docs"
	docJSON = base + "/doc.json"
)

// Mount adds the docs routes to the root router; CORE_API_SWAGGER gates it
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	ui := httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL(docJSON),
	)

	r.Get(base, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, base+"/", http.StatusPermanentRedirect)
	})
	r.Get(docJSON, serveDocJSON())
	r.Handle(base+"/*", ui)
}
