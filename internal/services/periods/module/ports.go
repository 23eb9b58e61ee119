package module

import (
	"namecensus/internal/adapters/ingest"
	"namecensus/internal/services/periods/catalog"
	"namecensus/internal/services/periods/domain"
)

// Ports holds the ports exposed by the periods module
type Ports struct {
	Service domain.ServicePort
	Records domain.RecordsPort
}

// Inject overrides collaborators the module would otherwise build from config
type Inject struct {
	Catalog *catalog.Catalog
	Fetcher ingest.Fetcher
	Options *Options
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
