package module

import (
	analyticsdom "namecensus/internal/services/analytics/domain"
	comparisondom "namecensus/internal/services/comparison/domain"
	"namecensus/internal/services/export/domain"
	periodsdom "namecensus/internal/services/periods/domain"
)

// Ports holds the ports exposed by the export module
type Ports struct {
	Service domain.ServicePort
}

// Needs is what the export module reads from other modules
type Needs struct {
	Records    periodsdom.RecordsPort
	Analytics  analyticsdom.ResultsPort
	Comparison comparisondom.ResultsPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
