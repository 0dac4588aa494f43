package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

var (
	ErrSessionClosed  = errors.New("session closed")
	ErrAlreadyJoined  = errors.New("already joined")
	ErrNotJoined      = errors.New("not joined")
	ErrRequiresHost   = errors.New("operation requires the teacher role")
	ErrChatMuted      = errors.New("student chat is muted")
	ErrUnknownStream  = errors.New("unknown stream")
	ErrUnknownTeacher = errors.New("no teacher in room")
)

const defaultTick = time.Second

// Params configures one classroom attendance instance.
type Params struct {
	Room     domain.RoomID
	User     domain.User
	RoomType domain.RoomType
	Tick     time.Duration
	Now      func() time.Time
}

// Session is one classroom attendance instance for one local
// participant. All shared state is mutated either on the dispatch
// queue worker or by awaited façade commands routed through the same
// queue, so no two mutations ever interleave.
type Session struct {
	room     domain.RoomID
	user     domain.User
	roomType domain.RoomType

	channel core.RoomChannel
	devices core.DeviceController

	queue *Queue
	clock *Clock
	recon *reconciler
	sync  *synchronizer
	stage stageController

	mu       sync.RWMutex
	state    State
	attached bool
}

func New(p Params, channel core.RoomChannel, devices core.DeviceController) *Session {
	if p.Tick <= 0 {
		p.Tick = defaultTick
	}
	s := &Session{
		room:     p.Room,
		user:     p.User,
		roomType: p.RoomType,
		channel:  channel,
		devices:  devices,
		queue:    NewQueue(),
		clock:    NewClock(),
		recon:    newReconciler(devices),
		stage:    stageController{channel: channel},
		state:    newState(),
	}
	s.sync = newSynchronizer(s.clock, p.Tick, p.Now, func(elapsed time.Duration) {
		s.mu.Lock()
		s.state.Elapsed = elapsed
		s.mu.Unlock()
	})
	return s
}

// Snapshot returns a copy of the observable session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.snapshot()
}

// User returns the local participant identity.
func (s *Session) User() domain.User { return s.user }

// Room returns the attended room id.
func (s *Session) Room() domain.RoomID { return s.room }

// Join attaches the session: binds notification handlers, logs into
// the transport, enters the room with role-specific parameters,
// initializes this user's property record if absent, attaches media
// and, when eligible to publish, runs the initial publish-reconcile
// pass. Any failure is returned to the caller; partial state is only
// cleared by Leave.
func (s *Session) Join(ctx context.Context) error {
	s.mu.RLock()
	joined := s.state.Joined
	s.mu.RUnlock()
	if joined {
		return ErrAlreadyJoined
	}

	s.channel.Bind(s.handlers())

	if err := s.channel.Login(ctx, s.user.ID); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	params := core.JoinParams{
		Room: s.room,
		User: s.user.ID,
		Name: s.user.Name,
		Role: domain.AttachRole(s.user.Role, s.roomType),
	}
	snap, err := s.channel.JoinRoom(ctx, params)
	if err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	var hasRecord bool
	err = s.queue.Invoke(ctx, "join-apply", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sync.Apply(snap, &s.state)
		_, hasRecord = s.state.Props.Students[s.user.ID]
		return nil
	})
	if err != nil {
		return err
	}

	if s.user.Role == domain.RoleStudent && !hasRecord {
		patch := domain.PropertyPatch{Students: map[domain.UserID]domain.StudentRecord{
			s.user.ID: {Name: s.user.Name, StreamID: domain.StreamID(s.user.ID)},
		}}
		if err := s.channel.UpdateRoomProperties(ctx, patch, core.CauseStudentList); err != nil {
			return fmt.Errorf("init student record: %w", err)
		}
	}

	if err := s.queue.Invoke(ctx, "join-attach", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.attached = true
		s.state.Joined = true
		return nil
	}); err != nil {
		return err
	}

	if s.canPublish() {
		spec := domain.StreamSpec{
			ID:    domain.StreamID(s.user.ID),
			Owner: s.user.ID,
			Type:  domain.StreamMain,
			Video: domain.MediaOn,
			Audio: domain.MediaOn,
		}
		if err := s.devices.Publish(ctx, spec); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		main := &domain.Stream{
			ID:     spec.ID,
			Owner:  spec.Owner,
			Type:   domain.StreamMain,
			Video:  spec.Video,
			Audio:  spec.Audio,
			Online: true,
		}
		if err := s.queue.Invoke(ctx, "join-reconcile", func() error {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.recon.Reconcile(context.Background(), main, s.attached)
		}); err != nil {
			return fmt.Errorf("initial reconcile: %w", err)
		}
	}

	log.Info().Str("module", "session").Str("room", string(s.room)).Str("user", string(s.user.ID)).Msg("joined")
	return nil
}

func (s *Session) canPublish() bool {
	return domain.AttachRole(s.user.Role, s.roomType) != domain.ChannelAudience
}

// Leave tears the session down: timers stop unconditionally, the room
// is left, the channel closed, the queue drained, and every entity
// reset to its initial value.
func (s *Session) Leave(ctx context.Context) error {
	s.clock.StopAll()

	err := s.channel.LeaveRoom(ctx)
	s.channel.Close()

	s.mu.Lock()
	s.attached = false
	s.mu.Unlock()

	s.queue.Close()

	s.mu.Lock()
	s.state.reset()
	s.recon.reset()
	s.sync.reset()
	s.mu.Unlock()

	log.Info().Str("module", "session").Str("room", string(s.room)).Msg("left")
	if err != nil {
		return fmt.Errorf("leave room: %w", err)
	}
	return nil
}

// handlers binds every transport notification through the dispatch
// queue so handler bodies never interleave.
func (s *Session) handlers() core.Handlers {
	return core.Handlers{
		OnMembersChanged: func(scope core.Scope, users domain.UserList) {
			s.queue.Dispatch("members-changed", func() error {
				return s.applyMembers(scope, users)
			})
		},
		OnStreamsChanged: func(scope core.Scope, kind core.StreamScope, streams domain.StreamList) {
			s.queue.Dispatch("streams-changed", func() error {
				return s.applyStreams(scope, kind, streams)
			})
		},
		OnPropertiesUpdated: func(snap core.PropertySnapshot) {
			s.queue.Dispatch("properties-updated", func() error {
				return s.applyProperties(snap)
			})
		},
		OnChatMessage: func(msg domain.ChatMessage) {
			s.queue.Dispatch("chat-message", func() error {
				return s.applyChat(msg)
			})
		},
		OnPeerMessage: func(msg core.PeerMessage) {
			s.queue.Dispatch("peer-message", func() error {
				return s.applyPeer(msg)
			})
		},
	}
}

func (s *Session) applyMembers(_ core.Scope, users domain.UserList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Users = users
	return nil
}

func (s *Session) applyStreams(_ core.Scope, kind core.StreamScope, streams domain.StreamList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		// Not attached to the transport; skipping is not an error.
		return nil
	}

	switch kind {
	case core.StreamScopeScreen:
		s.state.Sharing = streams.AnyOnline(domain.StreamScreen)
		return nil
	default:
		s.state.Streams = streams
		var main *domain.Stream
		if st, ok := streams.OwnedBy(s.user.ID, domain.StreamMain); ok {
			main = &st
		}
		return s.recon.Reconcile(context.Background(), main, s.attached)
	}
}

func (s *Session) applyProperties(snap core.PropertySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil
	}
	s.sync.Apply(snap, &s.state)
	return nil
}

func (s *Session) applyChat(msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.FromName == "" {
		if u, ok := s.state.Users.Find(msg.From); ok {
			msg.FromName = u.Name
		}
	}
	s.state.appendChat(msg)
	return nil
}

func (s *Session) applyPeer(msg core.PeerMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch msg.Command {
	case core.PeerCmdClose:
		s.state.Quit = true
		log.Info().Str("module", "session").Str("from", string(msg.UserID)).Msg("closed by peer")
	case core.PeerCmdNotice:
		s.state.Notice = &domain.Notice{
			Reason:   noticeReason(msg.Action),
			From:     msg.UserID,
			FromName: msg.UserName,
		}
	default:
		log.Warn().Str("module", "session").Str("cmd", msg.Command).Msg("unknown peer command dropped")
	}
	return nil
}

func noticeReason(action int) domain.NoticeReason {
	switch action {
	case int(domain.HandUpApply):
		return domain.NoticeApply
	case int(domain.HandUpAccept):
		return domain.NoticeAccept
	case int(domain.HandUpCancel):
		return domain.NoticeCancel
	default:
		return domain.NoticeNone
	}
}
