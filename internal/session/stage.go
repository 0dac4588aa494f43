package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

var ErrUnknownGroup = errors.New("unknown group")

// stageController manages the at-most-two on-stage slots. Every
// transition is a property-tree mutation plus a stream batch mutation,
// applied as two sequential remote calls. The pair is not atomic: if
// the batch call fails after the property update succeeded, the next
// authoritative snapshot is what brings the local view back in line.
type stageController struct {
	channel core.RoomChannel
}

// Toggle moves a group on or off stage. Occupying prefers slot g1;
// with both slots taken the call is a rejected no-op. Removing the
// last occupied slot also clears the out-of-group interaction flag.
func (c *stageController) Toggle(ctx context.Context, st *State, id domain.GroupID) error {
	group, ok := domain.FindGroup(st.Props, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}

	stage := st.Props.InteractOutGroups
	if _, on := stage.SlotOf(id); on {
		return c.takeOff(ctx, st, stage, group)
	}
	if stage.Full() {
		log.Warn().Str("module", "session.stage").Str("group", string(id)).Msg("stage full, toggle rejected")
		return nil
	}
	return c.putOn(ctx, st, stage, group)
}

func (c *stageController) putOn(ctx context.Context, st *State, stage domain.StagePlacement, group domain.Group) error {
	next := stage
	if next.G1 == "" {
		next.G1 = group.ID
	} else {
		next.G2 = group.ID
	}
	next.Interact = true

	if err := c.channel.UpdateRoomProperties(ctx, domain.PropertyPatch{Stage: &next}, core.CauseStageToggle); err != nil {
		return fmt.Errorf("stage on %s: %w", group.ID, err)
	}

	specs := make([]domain.StreamSpec, 0, len(group.Members))
	for _, m := range group.Members {
		specs = append(specs, domain.StreamSpec{
			ID:    memberStreamID(m),
			Owner: m.UserID,
			Type:  domain.StreamMain,
			Video: domain.MediaOn,
			Audio: domain.MediaOn,
		})
	}
	if err := c.channel.BatchUpsertStream(ctx, specs); err != nil {
		return fmt.Errorf("stage on %s streams: %w", group.ID, err)
	}

	st.Props.InteractOutGroups = next
	log.Info().Str("module", "session.stage").Str("group", string(group.ID)).Msg("group on stage")
	return nil
}

func (c *stageController) takeOff(ctx context.Context, st *State, stage domain.StagePlacement, group domain.Group) error {
	next := stage
	switch group.ID {
	case next.G1:
		next.G1 = ""
	case next.G2:
		next.G2 = ""
	}
	if next.Empty() {
		next.Interact = false
	}

	if err := c.channel.UpdateRoomProperties(ctx, domain.PropertyPatch{Stage: &next}, core.CauseStageToggle); err != nil {
		return fmt.Errorf("stage off %s: %w", group.ID, err)
	}

	ids := make([]domain.StreamID, 0, len(group.Members))
	for _, m := range group.Members {
		ids = append(ids, memberStreamID(m))
	}
	if err := c.channel.BatchDeleteStream(ctx, ids); err != nil {
		return fmt.Errorf("stage off %s streams: %w", group.ID, err)
	}

	st.Props.InteractOutGroups = next
	log.Info().Str("module", "session.stage").Str("group", string(group.ID)).Msg("group off stage")
	return nil
}

// AddGroupStar grants every member of a group one reward point in a
// single batched property update. There is no optimistic local write;
// the new counters become visible with the echoed snapshot.
func (c *stageController) AddGroupStar(ctx context.Context, st *State, id domain.GroupID) error {
	group, ok := domain.FindGroup(st.Props, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}

	students := make(map[domain.UserID]domain.StudentRecord, len(group.Members))
	for _, m := range group.Members {
		rec := st.Props.Students[m.UserID]
		rec.Reward++
		if rec.Name == "" {
			rec.Name = m.Name
		}
		students[m.UserID] = rec
	}
	if err := c.channel.UpdateRoomProperties(ctx, domain.PropertyPatch{Students: students}, core.CauseGroupReward); err != nil {
		return fmt.Errorf("group star %s: %w", id, err)
	}
	return nil
}

// SendReward sets one student's reward counter to previous+1.
func (c *stageController) SendReward(ctx context.Context, st *State, uid domain.UserID) error {
	rec := st.Props.Students[uid]
	rec.Reward++
	patch := domain.PropertyPatch{Students: map[domain.UserID]domain.StudentRecord{uid: rec}}
	if err := c.channel.UpdateRoomProperties(ctx, patch, core.CauseReward); err != nil {
		return fmt.Errorf("reward %s: %w", uid, err)
	}
	return nil
}

// SetGroupAudio mutes or unmutes every on-stage member of a group with
// one stream batch upsert, keeping each stream's video bit as is.
func (c *stageController) SetGroupAudio(ctx context.Context, st *State, id domain.GroupID, on bool) error {
	group, ok := domain.FindGroup(st.Props, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}

	audio := domain.MediaOff
	if on {
		audio = domain.MediaOn
	}
	specs := make([]domain.StreamSpec, 0, len(group.Members))
	for _, m := range group.Members {
		video := domain.MediaOn
		if cur, ok := st.Streams[memberStreamID(m)]; ok {
			video = cur.Video
		}
		specs = append(specs, domain.StreamSpec{
			ID:    memberStreamID(m),
			Owner: m.UserID,
			Type:  domain.StreamMain,
			Video: video,
			Audio: audio,
		})
	}
	if err := c.channel.BatchUpsertStream(ctx, specs); err != nil {
		return fmt.Errorf("group audio %s: %w", id, err)
	}
	return nil
}

func memberStreamID(m domain.GroupMember) domain.StreamID {
	if m.StreamID != "" {
		return m.StreamID
	}
	return domain.StreamID(m.UserID)
}
