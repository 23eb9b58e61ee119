package module

import (
	analyticsdom "namecensus/internal/services/analytics/domain"
	"namecensus/internal/services/comparison/domain"
	periodsdom "namecensus/internal/services/periods/domain"
)

// Ports holds the ports exposed by the comparison module
type Ports struct {
	Service domain.ServicePort
	Results domain.ResultsPort
}

// Needs is what the comparison module requires from other modules
type Needs struct {
	Records periodsdom.RecordsPort
	Results analyticsdom.ResultsPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
