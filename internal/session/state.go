package session

import (
	"time"

	"github.com/akorche/groupclass/internal/domain"
)

const chatLogLimit = 200

// State is the shared mutable session state. It is owned by the
// session and mutated only under the session lock by queue tasks or
// awaited commands; readers get copies via Snapshot.
type State struct {
	Joined bool
	Quit   bool

	Users   domain.UserList
	Streams domain.StreamList
	Props   domain.RoomProperties
	Status  domain.RoomStatus

	Sharing      bool
	ChatMuted    bool
	ClassRunning bool
	StartTime    int64
	Elapsed      time.Duration
	RecordID     string

	Chat   []domain.ChatMessage
	Notice *domain.Notice
}

func newState() State {
	return State{
		Streams: domain.StreamList{},
		Props:   domain.RoomProperties{}.Normalize(),
	}
}

func (s *State) appendChat(msg domain.ChatMessage) {
	s.Chat = append(s.Chat, msg)
	if len(s.Chat) > chatLogLimit {
		s.Chat = s.Chat[len(s.Chat)-chatLogLimit:]
	}
}

// reset clears every mapping back to its initial value; nothing in the
// state outlives Leave.
func (s *State) reset() {
	*s = newState()
}

// Snapshot is the read-only view handed to observers.
type Snapshot struct {
	Joined       bool                  `json:"joined"`
	Quit         bool                  `json:"quit"`
	Users        domain.UserList       `json:"users"`
	Streams      []domain.Stream       `json:"streams"`
	Groups       []domain.Group        `json:"groups"`
	Stage        domain.StagePlacement `json:"stage"`
	Sharing      bool                  `json:"sharing"`
	ChatMuted    bool                  `json:"chatMuted"`
	ClassRunning bool                  `json:"classRunning"`
	StartTime    int64                 `json:"startTime"`
	Elapsed      time.Duration         `json:"elapsed"`
	RecordID     string                `json:"recordId,omitempty"`
	Chat         []domain.ChatMessage  `json:"chat"`
	Notice       *domain.Notice        `json:"notice,omitempty"`
}

func (s *State) snapshot() Snapshot {
	streams := make([]domain.Stream, 0, len(s.Streams))
	for _, st := range s.Streams {
		streams = append(streams, st)
	}
	chat := make([]domain.ChatMessage, len(s.Chat))
	copy(chat, s.Chat)

	var notice *domain.Notice
	if s.Notice != nil {
		n := *s.Notice
		notice = &n
	}

	return Snapshot{
		Joined:       s.Joined,
		Quit:         s.Quit,
		Users:        append(domain.UserList{}, s.Users...),
		Streams:      streams,
		Groups:       domain.DeriveGroups(s.Props),
		Stage:        s.Props.InteractOutGroups,
		Sharing:      s.Sharing,
		ChatMuted:    s.ChatMuted,
		ClassRunning: s.ClassRunning,
		StartTime:    s.StartTime,
		Elapsed:      s.Elapsed,
		RecordID:     s.RecordID,
		Chat:         chat,
		Notice:       notice,
	}
}
