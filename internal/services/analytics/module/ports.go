package module

import (
	"namecensus/internal/services/analytics/domain"
	periodsdom "namecensus/internal/services/periods/domain"
)

// Ports holds the ports exposed by the analytics module
type Ports struct {
	Service domain.ServicePort
	Results domain.ResultsPort
}

// Needs is what the analytics module requires from other modules
type Needs struct {
	Records periodsdom.RecordsPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
