// Package rtc implements the DeviceController capability on top of a
// pion PeerConnection with local static RTP tracks.
package rtc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

var ErrClosed = errors.New("media connection closed")

func DefaultConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

// Devices owns the outbound media side of one session: a peer
// connection plus at most one local track per device kind. Open adds
// the track to the connection, Close removes it; both tolerate
// redundant calls.
type Devices struct {
	mu sync.Mutex
	pc *webrtc.PeerConnection

	hasCamera     bool
	hasMicrophone bool

	streamID string
	tracks   map[core.DeviceKind]*webrtc.TrackLocalStaticRTP
	senders  map[core.DeviceKind]*webrtc.RTPSender
	closed   bool
}

// New builds the adapter. Availability flags come from configuration
// since a headless process has no real capture hardware to enumerate.
func New(cfg webrtc.Configuration, hasCamera, hasMicrophone bool) (*Devices, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	d := &Devices{
		pc:            pc,
		hasCamera:     hasCamera,
		hasMicrophone: hasMicrophone,
		tracks:        make(map[core.DeviceKind]*webrtc.TrackLocalStaticRTP),
		senders:       make(map[core.DeviceKind]*webrtc.RTPSender),
	}
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "adapters.rtc").Str("peer_connection_state", s.String()).Msg("peer state")
	})
	return d, nil
}

func (d *Devices) Probe(_ context.Context, kind core.DeviceKind) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false, ErrClosed
	}
	if kind == core.DeviceCamera {
		return d.hasCamera, nil
	}
	return d.hasMicrophone, nil
}

func (d *Devices) Open(_ context.Context, kind core.DeviceKind) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if _, ok := d.senders[kind]; ok {
		return nil
	}

	track, err := d.track(kind)
	if err != nil {
		return err
	}
	sender, err := d.pc.AddTrack(track)
	if err != nil {
		return fmt.Errorf("add %s track: %w", kind, err)
	}
	d.senders[kind] = sender
	log.Info().Str("module", "adapters.rtc").Str("device", kind.String()).Msg("device opened")
	return nil
}

func (d *Devices) Close(_ context.Context, kind core.DeviceKind) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	sender, ok := d.senders[kind]
	if !ok {
		return nil
	}
	if err := d.pc.RemoveTrack(sender); err != nil {
		return fmt.Errorf("remove %s track: %w", kind, err)
	}
	delete(d.senders, kind)
	log.Info().Str("module", "adapters.rtc").Str("device", kind.String()).Msg("device closed")
	return nil
}

// Publish records the announced stream id so subsequently opened
// tracks carry it.
func (d *Devices) Publish(_ context.Context, spec domain.StreamSpec) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.streamID = string(spec.ID)
	log.Info().Str("module", "adapters.rtc").Str("stream", string(spec.ID)).Msg("published")
	return nil
}

// Shutdown closes the peer connection and all tracks.
func (d *Devices) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if err := d.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "adapters.rtc").Msg("close error")
	}
}

func (d *Devices) track(kind core.DeviceKind) (*webrtc.TrackLocalStaticRTP, error) {
	if t, ok := d.tracks[kind]; ok {
		return t, nil
	}

	streamID := d.streamID
	if streamID == "" {
		streamID = "local"
	}
	var (
		track *webrtc.TrackLocalStaticRTP
		err   error
	)
	if kind == core.DeviceCamera {
		track, err = webrtc.NewTrackLocalStaticRTP(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", streamID)
	} else {
		track, err = webrtc.NewTrackLocalStaticRTP(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", streamID)
	}
	if err != nil {
		return nil, fmt.Errorf("new %s track: %w", kind, err)
	}
	d.tracks[kind] = track
	return track, nil
}
