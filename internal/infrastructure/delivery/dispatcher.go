package delivery

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Dispatcher routes a payload to the driver matching its destination variant
type Dispatcher struct {
	raw    *RawDriver
	ipp    *IPPDriver
	file   *FileDriver
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher over the three delivery drivers
func NewDispatcher(raw *RawDriver, ipp *IPPDriver, file *FileDriver, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{raw: raw, ipp: ipp, file: file, logger: logger}
}

// Dispatch delivers the payload to the destination and returns the artifact
// descriptor produced by the selected driver
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte, dest Destination) (string, error) {
	if dest == nil {
		return "", NewDeliveryError(ErrInvalidDestination, "no destination configured", nil)
	}
	switch target := dest.(type) {
	case RawDestination:
		return d.raw.Deliver(ctx, payload, target)
	case IPPDestination:
		return d.ipp.Deliver(ctx, payload, target)
	case FileDestination:
		return d.file.Deliver(ctx, payload, target)
	default:
		return "", NewDeliveryError(ErrInvalidDestination,
			fmt.Sprintf("unsupported destination variant %q", dest.variant()), nil)
	}
}
