package session

import (
	"context"
	"errors"
	"testing"

	"github.com/akorche/groupclass/internal/domain"
)

func TestManagerGetOrCreateReusesSession(t *testing.T) {
	built := 0
	m := NewManager(func(p Params) (*Session, error) {
		built++
		return New(p, &fakeChannel{}, &fakeDevices{camAvail: true, micAvail: true}), nil
	})

	p := Params{Room: "room-1", User: domain.User{ID: "me", Name: "Me"}}
	a, err := m.GetOrCreate(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := m.GetOrCreate(p)
	if err != nil {
		t.Fatalf("reuse: %v", err)
	}
	if a != b || built != 1 {
		t.Fatalf("expected one session built, got %d", built)
	}

	if _, ok := m.Get("room-1"); !ok {
		t.Fatal("expected lookup to find session")
	}
	if got := len(m.List()); got != 1 {
		t.Fatalf("expected one listing entry, got %d", got)
	}
}

func TestManagerBuildFailure(t *testing.T) {
	want := errors.New("dial failed")
	m := NewManager(func(Params) (*Session, error) { return nil, want })

	if _, err := m.GetOrCreate(Params{Room: "r"}); !errors.Is(err, want) {
		t.Fatalf("expected build error, got %v", err)
	}
	if len(m.List()) != 0 {
		t.Fatal("failed build must not be registered")
	}
}

func TestManagerStopForgetsSession(t *testing.T) {
	m := NewManager(func(p Params) (*Session, error) {
		return New(p, &fakeChannel{}, &fakeDevices{camAvail: true, micAvail: true}), nil
	})
	if _, err := m.GetOrCreate(Params{Room: "room-1", User: domain.User{ID: "me", Name: "Me"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := m.Stop(context.Background(), "room-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, ok := m.Get("room-1"); ok {
		t.Fatal("expected session forgotten after stop")
	}
	if err := m.Stop(context.Background(), "room-1"); err != nil {
		t.Fatalf("second stop must be a no-op, got %v", err)
	}
}
