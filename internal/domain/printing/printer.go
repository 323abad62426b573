package printing

import (
	"github.com/warecore/printd/internal/domain/shared"
)

// DefaultRawPort is the conventional raw-socket printing port
const DefaultRawPort = 9100

// Printer is the configuration of one physical or virtual print
// destination. It is owned by the inventory application; the dispatch
// pipeline only reads it.
type Printer struct {
	shared.BaseEntity
	Name   string
	Driver DriverTag // "zpl", "ipp", or anything else (treated as unset)
	Host   string
	Port   int               // 0 means DefaultRawPort
	Config map[string]string // driver-specific settings, e.g. "uri" for IPP
}

// EndpointPort returns the TCP port, applying the 9100 default
func (p *Printer) EndpointPort() int {
	if p.Port == 0 {
		return DefaultRawPort
	}
	return p.Port
}

// URI returns the configured IPP endpoint, empty when not set
func (p *Printer) URI() string {
	if p.Config == nil {
		return ""
	}
	return p.Config["uri"]
}
