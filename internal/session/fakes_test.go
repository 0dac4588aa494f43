package session

import (
	"context"
	"sync"
	"time"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

type patchCall struct {
	patch domain.PropertyPatch
	cause core.Cause
}

type peerCall struct {
	to  domain.UserID
	msg core.PeerMessage
}

type fakeChannel struct {
	mu       sync.Mutex
	handlers core.Handlers

	joinSnap core.PropertySnapshot

	logins  []domain.UserID
	joins   []core.JoinParams
	patches []patchCall
	upserts [][]domain.StreamSpec
	deletes [][]domain.StreamID
	chats   []string
	peers   []peerCall
	left    bool
	closed  bool

	updateErr error
	upsertErr error
	deleteErr error
}

func (f *fakeChannel) Bind(h core.Handlers) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = h
}

func (f *fakeChannel) bound() core.Handlers {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers
}

func (f *fakeChannel) Login(_ context.Context, uid domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, uid)
	return nil
}

func (f *fakeChannel) JoinRoom(_ context.Context, params core.JoinParams) (core.PropertySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, params)
	return f.joinSnap, nil
}

func (f *fakeChannel) LeaveRoom(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = true
	return nil
}

func (f *fakeChannel) UpdateRoomProperties(_ context.Context, patch domain.PropertyPatch, cause core.Cause) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.patches = append(f.patches, patchCall{patch: patch, cause: cause})
	return nil
}

func (f *fakeChannel) BatchUpsertStream(_ context.Context, specs []domain.StreamSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, specs)
	return nil
}

func (f *fakeChannel) BatchDeleteStream(_ context.Context, ids []domain.StreamID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, ids)
	return nil
}

func (f *fakeChannel) SendChatMessage(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, text)
	return nil
}

func (f *fakeChannel) SendPeerMessage(_ context.Context, to domain.UserID, msg core.PeerMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peers = append(f.peers, peerCall{to: to, msg: msg})
	return nil
}

func (f *fakeChannel) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type fakeDevices struct {
	mu sync.Mutex

	camAvail bool
	micAvail bool
	probeErr error
	openErr  error

	opens     []core.DeviceKind
	closes    []core.DeviceKind
	published []domain.StreamSpec
}

func (f *fakeDevices) Probe(_ context.Context, kind core.DeviceKind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return false, f.probeErr
	}
	if kind == core.DeviceCamera {
		return f.camAvail, nil
	}
	return f.micAvail, nil
}

func (f *fakeDevices) Open(_ context.Context, kind core.DeviceKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opens = append(f.opens, kind)
	return nil
}

func (f *fakeDevices) Close(_ context.Context, kind core.DeviceKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes = append(f.closes, kind)
	return nil
}

func (f *fakeDevices) Publish(_ context.Context, spec domain.StreamSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, spec)
	return nil
}

func (f *fakeDevices) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opens) + len(f.closes)
}

type fakeTicker struct {
	mu      sync.Mutex
	started []string
	stopped []string
	fns     map[string]func()
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{fns: make(map[string]func())}
}

func (f *fakeTicker) Start(name string, _ time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, name)
	f.fns[name] = fn
}

func (f *fakeTicker) Stop(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, name)
	delete(f.fns, name)
}

func (f *fakeTicker) running(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.fns[name]
	return ok
}
