package core

import (
	"context"

	"github.com/akorche/groupclass/internal/domain"
)

// DeviceKind names a local capture device.
type DeviceKind int

const (
	DeviceCamera DeviceKind = iota
	DeviceMicrophone
)

func (k DeviceKind) String() string {
	if k == DeviceCamera {
		return "camera"
	}
	return "microphone"
}

// DeviceController actuates local capture devices and the outbound
// publish. Probe must succeed before Open/Close is attempted; Open and
// Close tolerate redundant calls.
type DeviceController interface {
	// Probe reports device availability. An error means the probe
	// itself failed, not that the device is absent.
	Probe(ctx context.Context, kind DeviceKind) (bool, error)
	Open(ctx context.Context, kind DeviceKind) error
	Close(ctx context.Context, kind DeviceKind) error

	// Publish announces the local main stream to the media transport.
	Publish(ctx context.Context, spec domain.StreamSpec) error
}
