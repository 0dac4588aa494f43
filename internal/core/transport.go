// Package core defines the capability interfaces the session consumes.
// Adapters own the underlying connections; the session never touches
// transport resources directly.
package core

import (
	"context"
	"errors"

	"github.com/akorche/groupclass/internal/domain"
)

var (
	ErrBackpressure = errors.New("send buffer full")
	ErrChannelDown  = errors.New("channel closed")
)

// Scope tells whether a notification concerns the local participant
// or a remote one.
type Scope int

const (
	ScopeLocal Scope = iota
	ScopeRemote
)

// StreamScope selects which stream family a stream-list notification covers.
type StreamScope int

const (
	StreamScopeMain StreamScope = iota
	StreamScopeScreen
)

// PropertySnapshot pairs a full property tree with its status block.
type PropertySnapshot struct {
	Properties domain.RoomProperties `json:"properties"`
	Status     domain.RoomStatus     `json:"status"`
}

// PeerMessage is a point-to-point control message between participants.
type PeerMessage struct {
	Command  string        `json:"cmd"`
	Action   int           `json:"action"`
	UserID   domain.UserID `json:"userUuid"`
	UserName string        `json:"userName"`
}

const (
	PeerCmdNotice = "notice"
	PeerCmdClose  = "close"
)

// Handlers is the notification surface the session binds at join.
// Handlers run on the transport's read goroutine; implementations are
// expected to hand the body to the session's dispatch queue.
type Handlers struct {
	OnMembersChanged    func(scope Scope, users domain.UserList)
	OnStreamsChanged    func(scope Scope, kind StreamScope, streams domain.StreamList)
	OnPropertiesUpdated func(snap PropertySnapshot)
	OnChatMessage       func(msg domain.ChatMessage)
	OnPeerMessage       func(msg PeerMessage)
}

// JoinParams carries the role-specific attach parameters.
type JoinParams struct {
	Room domain.RoomID
	User domain.UserID
	Name string
	Role domain.ChannelRole
}

// RoomChannel is the command surface against the signaling transport.
// Every call may suspend on a network round-trip; errors are surfaced
// to the caller and never retried here.
type RoomChannel interface {
	Login(ctx context.Context, uid domain.UserID) error
	JoinRoom(ctx context.Context, params JoinParams) (PropertySnapshot, error)
	LeaveRoom(ctx context.Context) error
	Bind(h Handlers)

	UpdateRoomProperties(ctx context.Context, patch domain.PropertyPatch, cause Cause) error
	BatchUpsertStream(ctx context.Context, specs []domain.StreamSpec) error
	BatchDeleteStream(ctx context.Context, ids []domain.StreamID) error
	SendChatMessage(ctx context.Context, text string) error
	SendPeerMessage(ctx context.Context, to domain.UserID, msg PeerMessage) error

	Close()
}
