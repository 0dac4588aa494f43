package session

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

const recordStoppedMarker = "The class recording is ready for replay"

// synchronizer applies authoritative property snapshots and re-derives
// the dependent scalar state. All derivations are pure functions of
// the new snapshot plus the previously cached scalars used for edge
// detection; there is no incremental patching.
type synchronizer struct {
	clock  Ticker
	tick   time.Duration
	now    func() time.Time
	onTick func(elapsed time.Duration)

	recording bool
}

func newSynchronizer(clock Ticker, tick time.Duration, now func() time.Time, onTick func(time.Duration)) *synchronizer {
	if now == nil {
		now = time.Now
	}
	return &synchronizer{clock: clock, tick: tick, now: now, onTick: onTick}
}

// Apply replaces the property tree wholesale and updates derived state.
func (y *synchronizer) Apply(snap core.PropertySnapshot, st *State) {
	st.Props = snap.Properties.Normalize()
	st.Status = snap.Status

	y.applyRecord(snap.Properties.Record, st)
	y.applyCourseState(snap.Status, st)
	st.ChatMuted = !snap.Status.ChatAllowed
}

// applyRecord fires the stopped-recording marker exactly once per
// recording session: only on the true-to-false edge.
func (y *synchronizer) applyRecord(rec domain.RecordState, st *State) {
	was := y.recording
	y.recording = rec.Recording()

	switch {
	case was && !y.recording:
		st.RecordID = ""
		st.appendChat(domain.ChatMessage{
			Kind: domain.ChatSystem,
			Text: recordStoppedMarker,
			At:   y.now(),
		})
		log.Info().Str("module", "session.sync").Msg("recording stopped")
	case y.recording:
		st.RecordID = rec.RecordID
	}
}

func (y *synchronizer) applyCourseState(status domain.RoomStatus, st *State) {
	running := status.CourseState == domain.CourseRunning
	if running == st.ClassRunning {
		return
	}
	st.ClassRunning = running
	st.StartTime = status.StartTime

	if running {
		start := time.UnixMilli(status.StartTime)
		y.clock.Start(TimerName, y.tick, func() {
			if y.onTick != nil {
				y.onTick(y.now().Sub(start))
			}
		})
		log.Info().Str("module", "session.sync").Int64("start_time", status.StartTime).Msg("class started")
		return
	}
	y.clock.Stop(TimerName)
	log.Info().Str("module", "session.sync").Msg("class stopped")
}

func (y *synchronizer) reset() {
	y.recording = false
	y.clock.Stop(TimerName)
}
