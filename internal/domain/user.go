// Package domain contains session entities without transport logic, just meta-data.
package domain

import "errors"

const MaxUserNameLen = 36

var (
	ErrUserNameEmpty   = errors.New("user name empty")
	ErrUserNameTooLong = errors.New("user name too long")
)

type (
	UserID string
	RoomID string
)

// Role is the classroom role of a participant.
type Role int

const (
	RoleStudent Role = iota
	RoleTeacher
	RoleAssistant
)

// ChannelRole is the transport-level role a participant attaches with.
type ChannelRole int

const (
	ChannelAudience ChannelRole = iota
	ChannelBroadcaster
	ChannelHost
)

// RoomType selects the join semantics for students.
type RoomType int

const (
	// RoomLecture attaches students as audience; only the teacher publishes.
	RoomLecture RoomType = iota
	// RoomSmallClass attaches students as broadcasters.
	RoomSmallClass
)

type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, name string, role Role) (*User, error) {
	if len(name) == 0 {
		return nil, ErrUserNameEmpty
	}
	if len(name) > MaxUserNameLen {
		return nil, ErrUserNameTooLong
	}
	return &User{ID: id, Name: name, Role: role}, nil
}

// UserList is the participant set; replaced wholesale on every
// membership notification, last writer wins.
type UserList []User

func (l UserList) Find(id UserID) (User, bool) {
	for _, u := range l {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// AttachRole maps a classroom role onto the transport role used at join.
func AttachRole(role Role, rt RoomType) ChannelRole {
	switch role {
	case RoleTeacher:
		return ChannelHost
	case RoleAssistant:
		return ChannelAudience
	default:
		if rt == RoomSmallClass {
			return ChannelBroadcaster
		}
		return ChannelAudience
	}
}
