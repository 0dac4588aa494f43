package session

import (
	"context"
	"fmt"
	"time"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

// Façade commands. Each command that touches shared state runs its
// body through the dispatch queue, the same worker that runs
// notification handlers.

// SendMessage sends a room chat message and appends it to the local
// chat log. Students are rejected while student chat is muted.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	s.mu.RLock()
	muted := s.state.ChatMuted
	joined := s.state.Joined
	s.mu.RUnlock()
	if !joined {
		return ErrNotJoined
	}
	if muted && s.user.Role == domain.RoleStudent {
		return ErrChatMuted
	}

	if err := s.channel.SendChatMessage(ctx, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return s.queue.Invoke(ctx, "chat-local-append", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.appendChat(domain.ChatMessage{
			Kind:     domain.ChatUser,
			From:     s.user.ID,
			FromName: s.user.Name,
			Text:     text,
			At:       time.Now(),
		})
		return nil
	})
}

// SendClose asks a participant's client to quit the room.
func (s *Session) SendClose(ctx context.Context, uid domain.UserID) error {
	if s.user.Role != domain.RoleTeacher {
		return ErrRequiresHost
	}
	msg := core.PeerMessage{Command: core.PeerCmdClose, UserID: uid, UserName: s.user.Name}
	if err := s.channel.SendPeerMessage(ctx, uid, msg); err != nil {
		return fmt.Errorf("send close: %w", err)
	}
	return nil
}

// CallApply raises the local student's hand: the hand-up record goes
// into the property tree and the teacher gets a notice.
func (s *Session) CallApply(ctx context.Context) error {
	s.mu.RLock()
	teacher, ok := firstTeacher(s.state.Props)
	s.mu.RUnlock()
	if !ok {
		return ErrUnknownTeacher
	}

	patch := domain.PropertyPatch{HandUpStates: map[domain.UserID]domain.HandUpState{
		s.user.ID: {Reason: domain.HandUpApply, Name: s.user.Name},
	}}
	if err := s.channel.UpdateRoomProperties(ctx, patch, core.CauseHandUp); err != nil {
		return fmt.Errorf("hand up: %w", err)
	}
	msg := core.PeerMessage{
		Command:  core.PeerCmdNotice,
		Action:   int(domain.HandUpApply),
		UserID:   s.user.ID,
		UserName: s.user.Name,
	}
	if err := s.channel.SendPeerMessage(ctx, teacher, msg); err != nil {
		return fmt.Errorf("hand up notice: %w", err)
	}
	return nil
}

// CallAccept grants a pending hand-raise (teacher only).
func (s *Session) CallAccept(ctx context.Context, uid domain.UserID) error {
	return s.answerCall(ctx, uid, domain.HandUpAccept)
}

// CallCancel clears a pending hand-raise (teacher only).
func (s *Session) CallCancel(ctx context.Context, uid domain.UserID) error {
	return s.answerCall(ctx, uid, domain.HandUpCancel)
}

func (s *Session) answerCall(ctx context.Context, uid domain.UserID, reason domain.HandUpReason) error {
	if s.user.Role != domain.RoleTeacher {
		return ErrRequiresHost
	}
	s.mu.RLock()
	name := ""
	if rec, ok := s.state.Props.Students[uid]; ok {
		name = rec.Name
	}
	s.mu.RUnlock()

	patch := domain.PropertyPatch{HandUpStates: map[domain.UserID]domain.HandUpState{
		uid: {Reason: reason, Name: name},
	}}
	if err := s.channel.UpdateRoomProperties(ctx, patch, core.CauseHandUp); err != nil {
		return fmt.Errorf("answer call: %w", err)
	}
	msg := core.PeerMessage{
		Command:  core.PeerCmdNotice,
		Action:   int(reason),
		UserID:   s.user.ID,
		UserName: s.user.Name,
	}
	if err := s.channel.SendPeerMessage(ctx, uid, msg); err != nil {
		return fmt.Errorf("answer call notice: %w", err)
	}
	return nil
}

// MuteLocal opens or closes a local capture device directly.
func (s *Session) MuteLocal(ctx context.Context, kind core.DeviceKind, mute bool) error {
	return s.queue.Invoke(ctx, "mute-local", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.attached {
			return nil
		}
		return s.recon.Set(context.Background(), kind, !mute)
	})
}

// MuteRemote toggles the audio or video bit on another participant's
// main stream with a single-entry batch upsert (teacher only).
func (s *Session) MuteRemote(ctx context.Context, uid domain.UserID, kind core.DeviceKind, mute bool) error {
	if s.user.Role != domain.RoleTeacher {
		return ErrRequiresHost
	}
	s.mu.RLock()
	stream, ok := s.state.Streams.OwnedBy(uid, domain.StreamMain)
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: no main stream for %s", ErrUnknownStream, uid)
	}

	bit := domain.MediaOn
	if mute {
		bit = domain.MediaOff
	}
	spec := domain.StreamSpec{
		ID:    stream.ID,
		Owner: stream.Owner,
		Type:  stream.Type,
		Video: stream.Video,
		Audio: stream.Audio,
	}
	if kind == core.DeviceCamera {
		spec.Video = bit
	} else {
		spec.Audio = bit
	}
	if err := s.channel.BatchUpsertStream(ctx, []domain.StreamSpec{spec}); err != nil {
		return fmt.Errorf("mute remote %s: %w", uid, err)
	}
	return nil
}

// TogglePlatform moves a group on or off stage (teacher only).
func (s *Session) TogglePlatform(ctx context.Context, id domain.GroupID) error {
	if s.user.Role != domain.RoleTeacher {
		return ErrRequiresHost
	}
	return s.queue.Invoke(ctx, "toggle-platform", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.attached {
			return nil
		}
		return s.stage.Toggle(ctx, &s.state, id)
	})
}

// AddGroupStar grants one reward point to every member of a group
// (teacher only).
func (s *Session) AddGroupStar(ctx context.Context, id domain.GroupID) error {
	if s.user.Role != domain.RoleTeacher {
		return ErrRequiresHost
	}
	return s.queue.Invoke(ctx, "group-star", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.stage.AddGroupStar(ctx, &s.state, id)
	})
}

// SendReward bumps a single student's reward counter (teacher only).
func (s *Session) SendReward(ctx context.Context, uid domain.UserID) error {
	if s.user.Role != domain.RoleTeacher {
		return ErrRequiresHost
	}
	return s.queue.Invoke(ctx, "reward", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.stage.SendReward(ctx, &s.state, uid)
	})
}

// SetGroupAudio mutes or unmutes all members of a group (teacher only).
func (s *Session) SetGroupAudio(ctx context.Context, id domain.GroupID, on bool) error {
	if s.user.Role != domain.RoleTeacher {
		return ErrRequiresHost
	}
	return s.queue.Invoke(ctx, "group-audio", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.stage.SetGroupAudio(ctx, &s.state, id, on)
	})
}

// SetGroups replaces the grouping layout (teacher only). An empty map
// switches grouping off and clears the stage.
func (s *Session) SetGroups(ctx context.Context, groups map[domain.GroupID]domain.GroupRecord) error {
	if s.user.Role != domain.RoleTeacher {
		return ErrRequiresHost
	}
	if len(groups) == 0 {
		empty := domain.StagePlacement{}
		patch := domain.PropertyPatch{ClearGroups: true, Stage: &empty}
		if err := s.channel.UpdateRoomProperties(ctx, patch, core.CauseGroupingOff); err != nil {
			return fmt.Errorf("grouping off: %w", err)
		}
		return nil
	}

	s.mu.RLock()
	cause := core.CauseGroupingOn
	if len(s.state.Props.Groups) > 0 {
		cause = core.CauseGroupUpdate
	}
	s.mu.RUnlock()

	if err := s.channel.UpdateRoomProperties(ctx, domain.PropertyPatch{Groups: groups}, cause); err != nil {
		return fmt.Errorf("grouping update: %w", err)
	}
	return nil
}

func firstTeacher(p domain.RoomProperties) (domain.UserID, bool) {
	for uid := range p.Teachers {
		return uid, true
	}
	return "", false
}
