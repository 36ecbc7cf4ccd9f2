// Package device triggers readings on measuring instruments.
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"go.uber.org/zap"
)

const (
	KindStub   = "stub"
	KindDriver = "driver"
)

// Adapter produces a new, unsaved Measurement from a device on demand.
type Adapter interface {
	StartMeasurement(ctx context.Context, d model.Device) (model.Measurement, error)
}

// NewAdapter returns the adapter selected by kind.
func NewAdapter(kind, driverURL string, timeout time.Duration, log *zap.SugaredLogger) (Adapter, error) {
	switch kind {
	case "", KindStub:
		return NewStub(), nil
	case KindDriver:
		if driverURL == "" {
			return nil, fmt.Errorf("device driver selected without DEVICE_DRIVER_URL")
		}
		return NewDriver(driverURL, timeout, log), nil
	default:
		return nil, fmt.Errorf("unsupported DEVICE_ADAPTER %q", kind)
	}
}

// checkBound refuses devices that have been removed or were never bound.
func checkBound(d model.Device) error {
	if !d.IsBound() {
		return util.WrapError(util.ErrDeviceNotRegistered, "device %d", d.ID)
	}
	return nil
}
