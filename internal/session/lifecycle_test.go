package session

import (
	"context"
	"errors"
	"testing"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

func onlineMain(video, audio domain.MediaState) *domain.Stream {
	return &domain.Stream{
		ID:     "s1",
		Owner:  "u1",
		Type:   domain.StreamMain,
		Video:  video,
		Audio:  audio,
		Online: true,
	}
}

func TestReconcileOpensDesiredDevices(t *testing.T) {
	dev := &fakeDevices{camAvail: true, micAvail: true}
	r := newReconciler(dev)

	if err := r.Reconcile(context.Background(), onlineMain(domain.MediaOn, domain.MediaOn), true); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(dev.opens) != 2 {
		t.Fatalf("expected camera and microphone opened, got %v", dev.opens)
	}
	cam, mic := r.DeviceState()
	if !cam || !mic {
		t.Fatalf("expected both devices on, got camera=%v microphone=%v", cam, mic)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	dev := &fakeDevices{camAvail: true, micAvail: true}
	r := newReconciler(dev)
	main := onlineMain(domain.MediaOn, domain.MediaOff)

	if err := r.Reconcile(context.Background(), main, true); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	before := dev.calls()

	if err := r.Reconcile(context.Background(), main, true); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if dev.calls() != before {
		t.Fatalf("second pass actuated devices: %d calls before, %d after", before, dev.calls())
	}
}

func TestReconcileFollowsDescriptorChanges(t *testing.T) {
	dev := &fakeDevices{camAvail: true, micAvail: true}
	r := newReconciler(dev)

	if err := r.Reconcile(context.Background(), onlineMain(domain.MediaOn, domain.MediaOn), true); err != nil {
		t.Fatalf("reconcile on: %v", err)
	}
	if err := r.Reconcile(context.Background(), onlineMain(domain.MediaOff, domain.MediaOn), true); err != nil {
		t.Fatalf("reconcile off: %v", err)
	}
	if len(dev.closes) != 1 || dev.closes[0] != core.DeviceCamera {
		t.Fatalf("expected exactly one camera close, got %v", dev.closes)
	}
}

func TestReconcileAbsentStreamClearsLocal(t *testing.T) {
	dev := &fakeDevices{camAvail: true, micAvail: true}
	r := newReconciler(dev)

	if err := r.Reconcile(context.Background(), onlineMain(domain.MediaOn, domain.MediaOn), true); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if err := r.Reconcile(context.Background(), nil, true); err != nil {
		t.Fatalf("reconcile absent: %v", err)
	}
	if r.Local() != nil {
		t.Fatal("expected cached local stream cleared")
	}

	offline := onlineMain(domain.MediaOn, domain.MediaOn)
	offline.Online = false
	if err := r.Reconcile(context.Background(), offline, true); err != nil {
		t.Fatalf("reconcile offline: %v", err)
	}
	if r.Local() != nil {
		t.Fatal("expected cached local stream cleared for offline descriptor")
	}
}

func TestReconcileProbeFailureAborts(t *testing.T) {
	probeErr := errors.New("device busy")
	dev := &fakeDevices{probeErr: probeErr}
	r := newReconciler(dev)

	err := r.Reconcile(context.Background(), onlineMain(domain.MediaOn, domain.MediaOn), true)
	if !errors.Is(err, probeErr) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if dev.calls() != 0 {
		t.Fatal("expected no open/close after failed probe")
	}
}

func TestReconcileNotAttachedSkipsActuation(t *testing.T) {
	dev := &fakeDevices{camAvail: true, micAvail: true}
	r := newReconciler(dev)

	if err := r.Reconcile(context.Background(), onlineMain(domain.MediaOn, domain.MediaOn), false); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if dev.calls() != 0 {
		t.Fatal("expected no device actuation while detached")
	}
	if r.Local() == nil {
		t.Fatal("expected descriptor still cached while detached")
	}
}

func TestReconcileUnavailableDeviceUntouched(t *testing.T) {
	dev := &fakeDevices{camAvail: false, micAvail: true}
	r := newReconciler(dev)

	if err := r.Reconcile(context.Background(), onlineMain(domain.MediaOn, domain.MediaOn), true); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	for _, k := range dev.opens {
		if k == core.DeviceCamera {
			t.Fatal("unavailable camera must not be opened")
		}
	}
	if len(dev.opens) != 1 {
		t.Fatalf("expected only microphone opened, got %v", dev.opens)
	}
}
