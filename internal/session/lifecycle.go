package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

// reconciler keeps the local outbound camera/microphone publish state
// consistent with the desired flags on the local main stream
// descriptor. It suppresses redundant open/close calls so running it
// twice without a new event actuates nothing the second time.
type reconciler struct {
	devices core.DeviceController

	local    *domain.Stream
	cameraOn bool
	micOn    bool
}

func newReconciler(devices core.DeviceController) *reconciler {
	return &reconciler{devices: devices}
}

// Reconcile runs one reconciliation pass. main is the local main
// stream descriptor from the latest stream-list notification (nil when
// absent); attached tells whether the session currently holds a media
// attachment — devices are only actuated while attached.
func (r *reconciler) Reconcile(ctx context.Context, main *domain.Stream, attached bool) error {
	if main == nil || !main.Online {
		r.local = nil
		return nil
	}

	camAvail, err := r.devices.Probe(ctx, core.DeviceCamera)
	if err != nil {
		return fmt.Errorf("probe camera: %w", err)
	}
	micAvail, err := r.devices.Probe(ctx, core.DeviceMicrophone)
	if err != nil {
		return fmt.Errorf("probe microphone: %w", err)
	}

	desc := *main
	r.local = &desc

	if !attached {
		return nil
	}

	if camAvail {
		if err := r.actuate(ctx, core.DeviceCamera, desc.Video.Enabled(), &r.cameraOn); err != nil {
			return err
		}
	}
	if micAvail {
		if err := r.actuate(ctx, core.DeviceMicrophone, desc.Audio.Enabled(), &r.micOn); err != nil {
			return err
		}
	}
	return nil
}

func (r *reconciler) actuate(ctx context.Context, kind core.DeviceKind, want bool, cur *bool) error {
	if want == *cur {
		return nil
	}
	var err error
	if want {
		err = r.devices.Open(ctx, kind)
	} else {
		err = r.devices.Close(ctx, kind)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	*cur = want
	log.Debug().Str("module", "session.lifecycle").Str("device", kind.String()).Bool("on", want).Msg("device state changed")
	return nil
}

// Set actuates one device directly, bypassing the descriptor
// comparison; used by the local mute path.
func (r *reconciler) Set(ctx context.Context, kind core.DeviceKind, on bool) error {
	if kind == core.DeviceCamera {
		return r.actuate(ctx, kind, on, &r.cameraOn)
	}
	return r.actuate(ctx, kind, on, &r.micOn)
}

// Local returns the cached local main stream descriptor, if any.
func (r *reconciler) Local() *domain.Stream { return r.local }

// DeviceState reports the currently actuated device flags.
func (r *reconciler) DeviceState() (camera, microphone bool) {
	return r.cameraOn, r.micOn
}

func (r *reconciler) reset() {
	r.local = nil
	r.cameraOn = false
	r.micOn = false
}
