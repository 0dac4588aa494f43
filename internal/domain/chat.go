package domain

import "time"

// ChatKind distinguishes user messages from system markers.
type ChatKind int

const (
	ChatUser ChatKind = iota
	ChatSystem
)

type ChatMessage struct {
	Kind     ChatKind  `json:"kind"`
	From     UserID    `json:"from,omitempty"`
	FromName string    `json:"fromName,omitempty"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// NoticeReason classifies the latest transient peer request.
type NoticeReason int

const (
	NoticeNone NoticeReason = iota
	NoticeApply
	NoticeAccept
	NoticeCancel
	NoticeClose
)

// Notice is the single-slot transient request; overwritten by the
// latest incoming peer message.
type Notice struct {
	Reason   NoticeReason `json:"reason"`
	From     UserID       `json:"from"`
	FromName string       `json:"fromName"`
}
