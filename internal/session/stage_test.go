package session

import (
	"context"
	"errors"
	"testing"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

func groupedState() *State {
	st := newState()
	st.Props = domain.RoomProperties{
		Students: map[domain.UserID]domain.StudentRecord{
			"u1": {Name: "Ann", StreamID: "s-u1"},
			"u2": {Name: "Bob", StreamID: "s-u2"},
			"u3": {Name: "Cleo", StreamID: "s-u3"},
			"u4": {Name: "Dia", StreamID: "s-u4"},
		},
		Groups: map[domain.GroupID]domain.GroupRecord{
			"g1": {Name: "red", Members: []domain.UserID{"u1", "u2"}},
			"g2": {Name: "blue", Members: []domain.UserID{"u3"}},
			"g3": {Name: "green", Members: []domain.UserID{"u4"}},
		},
	}.Normalize()
	return &st
}

func TestToggleOnThenOff(t *testing.T) {
	ch := &fakeChannel{}
	c := stageController{channel: ch}
	st := groupedState()
	ctx := context.Background()

	if err := c.Toggle(ctx, st, "g1"); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	stage := st.Props.InteractOutGroups
	if stage.G1 != "g1" || stage.G2 != "" {
		t.Fatalf("expected g1 in slot one, got %+v", stage)
	}
	if !stage.Interact {
		t.Fatal("expected interaction flag set")
	}
	if len(ch.upserts) != 1 || len(ch.upserts[0]) != 2 {
		t.Fatalf("expected one batch upsert for two members, got %v", ch.upserts)
	}
	for _, spec := range ch.upserts[0] {
		if spec.Video != domain.MediaOn || spec.Audio != domain.MediaOn {
			t.Fatalf("expected videoState=1 audioState=1, got %+v", spec)
		}
	}

	if err := c.Toggle(ctx, st, "g1"); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	stage = st.Props.InteractOutGroups
	if !stage.Empty() {
		t.Fatalf("expected empty stage, got %+v", stage)
	}
	if stage.Interact {
		t.Fatal("expected interaction flag cleared with last slot")
	}
	if len(ch.deletes) != 1 || len(ch.deletes[0]) != 2 {
		t.Fatalf("expected one batch delete for two members, got %v", ch.deletes)
	}
}

func TestTogglePrefersFirstSlot(t *testing.T) {
	ch := &fakeChannel{}
	c := stageController{channel: ch}
	st := groupedState()
	st.Props.InteractOutGroups = domain.StagePlacement{G2: "g2", Interact: true}

	if err := c.Toggle(context.Background(), st, "g1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if st.Props.InteractOutGroups.G1 != "g1" {
		t.Fatalf("expected g1 placed in first slot, got %+v", st.Props.InteractOutGroups)
	}
}

func TestToggleRejectsWhenFull(t *testing.T) {
	ch := &fakeChannel{}
	c := stageController{channel: ch}
	st := groupedState()
	st.Props.InteractOutGroups = domain.StagePlacement{G1: "g1", G2: "g2", Interact: true}

	if err := c.Toggle(context.Background(), st, "g3"); err != nil {
		t.Fatalf("expected rejected toggle to be a no-op, got %v", err)
	}
	if len(ch.patches) != 0 || len(ch.upserts) != 0 {
		t.Fatal("expected no remote calls for rejected toggle")
	}
}

func TestToggleRemoveNonLastKeepsInteract(t *testing.T) {
	ch := &fakeChannel{}
	c := stageController{channel: ch}
	st := groupedState()
	st.Props.InteractOutGroups = domain.StagePlacement{G1: "g1", G2: "g2", Interact: true}

	if err := c.Toggle(context.Background(), st, "g1"); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	stage := st.Props.InteractOutGroups
	if stage.G1 != "" || stage.G2 != "g2" {
		t.Fatalf("expected only slot one cleared, got %+v", stage)
	}
	if !stage.Interact {
		t.Fatal("interaction flag must survive while a slot is occupied")
	}
}

func TestToggleUnknownGroup(t *testing.T) {
	c := stageController{channel: &fakeChannel{}}
	st := groupedState()
	if err := c.Toggle(context.Background(), st, "nope"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("expected ErrUnknownGroup, got %v", err)
	}
}

func TestToggleStreamFailureKeepsLocalStage(t *testing.T) {
	ch := &fakeChannel{upsertErr: errors.New("transport down")}
	c := stageController{channel: ch}
	st := groupedState()

	if err := c.Toggle(context.Background(), st, "g1"); err == nil {
		t.Fatal("expected error from failed stream batch")
	}
	// Property update went out but the local stage stays untouched;
	// the next authoritative snapshot reconverges the views.
	if !st.Props.InteractOutGroups.Empty() {
		t.Fatalf("expected local stage unchanged, got %+v", st.Props.InteractOutGroups)
	}
}

func TestAddGroupStarBatch(t *testing.T) {
	ch := &fakeChannel{}
	c := stageController{channel: ch}
	st := groupedState()
	st.Props.Students["u1"] = domain.StudentRecord{Name: "Ann", Reward: 3, StreamID: "s-u1"}

	if err := c.AddGroupStar(context.Background(), st, "g1"); err != nil {
		t.Fatalf("add group star: %v", err)
	}
	if len(ch.patches) != 1 {
		t.Fatalf("expected exactly one batched property update, got %d", len(ch.patches))
	}
	call := ch.patches[0]
	if call.cause != core.CauseGroupReward {
		t.Fatalf("expected group reward cause, got %v", call.cause)
	}
	if len(call.patch.Students) != 2 {
		t.Fatalf("expected 2 reward increments, got %d", len(call.patch.Students))
	}
	if got := call.patch.Students["u1"].Reward; got != 4 {
		t.Fatalf("expected u1 reward 4, got %d", got)
	}
	if got := call.patch.Students["u2"].Reward; got != 1 {
		t.Fatalf("expected u2 reward 1, got %d", got)
	}
	// No optimistic local write.
	if st.Props.Students["u1"].Reward != 3 {
		t.Fatal("reward must not be applied locally before the snapshot echo")
	}
}

func TestSendReward(t *testing.T) {
	ch := &fakeChannel{}
	c := stageController{channel: ch}
	st := groupedState()
	st.Props.Students["u2"] = domain.StudentRecord{Name: "Bob", Reward: 7, StreamID: "s-u2"}

	if err := c.SendReward(context.Background(), st, "u2"); err != nil {
		t.Fatalf("send reward: %v", err)
	}
	if len(ch.patches) != 1 || ch.patches[0].cause != core.CauseReward {
		t.Fatalf("expected one reward patch, got %+v", ch.patches)
	}
	if got := ch.patches[0].patch.Students["u2"].Reward; got != 8 {
		t.Fatalf("expected reward set to previous+1 (8), got %d", got)
	}
}

func TestSetGroupAudio(t *testing.T) {
	ch := &fakeChannel{}
	c := stageController{channel: ch}
	st := groupedState()
	st.Streams = domain.StreamList{
		"s-u1": {ID: "s-u1", Owner: "u1", Type: domain.StreamMain, Video: domain.MediaOff, Audio: domain.MediaOn, Online: true},
	}

	if err := c.SetGroupAudio(context.Background(), st, "g1", false); err != nil {
		t.Fatalf("set group audio: %v", err)
	}
	if len(ch.upserts) != 1 || len(ch.upserts[0]) != 2 {
		t.Fatalf("expected one two-entry batch, got %v", ch.upserts)
	}
	for _, spec := range ch.upserts[0] {
		if spec.Audio != domain.MediaOff {
			t.Fatalf("expected audio muted, got %+v", spec)
		}
		if spec.ID == "s-u1" && spec.Video != domain.MediaOff {
			t.Fatalf("expected existing video bit preserved, got %+v", spec)
		}
	}
}
