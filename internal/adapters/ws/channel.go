package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

type pendingResult struct {
	err  error
	data json.RawMessage
}

// Channel is the websocket implementation of core.RoomChannel.
// It owns the connection: read/write pumps, the ack correlation map,
// and the decode-and-drop policy for malformed notifications.
type Channel struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}

	seq atomic.Uint64

	mu       sync.Mutex
	pending  map[uint64]chan pendingResult
	handlers core.Handlers
}

// Dial connects to the signaling endpoint and starts the pumps.
func Dial(ctx context.Context, url string) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Channel{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		pending: make(map[uint64]chan pendingResult),
	}
	go c.writePump()
	go c.readPump()
	go c.keepalive()
	return c, nil
}

// keepalive sends envelope-level pings; the server answers with pong
// frames which handleFrame swallows.
func (c *Channel) keepalive() {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			frame, err := marshalEnvelope(msgPing, 0, struct{}{})
			if err != nil {
				return
			}
			if err := c.trySend(frame); err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Msg("ping skipped")
			}
		}
	}
}

// Bind installs the notification handlers. Handlers installed later
// replace earlier ones wholesale.
func (c *Channel) Bind(h core.Handlers) {
	c.mu.Lock()
	c.handlers = h
	c.mu.Unlock()
}

func (c *Channel) Login(ctx context.Context, uid domain.UserID) error {
	_, err := c.request(ctx, msgLogin, loginBody{User: uid})
	return err
}

func (c *Channel) JoinRoom(ctx context.Context, params core.JoinParams) (core.PropertySnapshot, error) {
	data, err := c.request(ctx, msgJoin, joinBody{
		Room: params.Room,
		User: params.User,
		Name: params.Name,
		Role: params.Role,
	})
	if err != nil {
		return core.PropertySnapshot{}, err
	}
	var snap core.PropertySnapshot
	if len(data) > 0 {
		if err := json.Unmarshal(data, &snap); err != nil {
			return core.PropertySnapshot{}, fmt.Errorf("join snapshot: %w", err)
		}
	}
	return snap, nil
}

func (c *Channel) LeaveRoom(ctx context.Context) error {
	_, err := c.request(ctx, msgLeave, struct{}{})
	return err
}

func (c *Channel) UpdateRoomProperties(ctx context.Context, patch domain.PropertyPatch, cause core.Cause) error {
	log.Debug().Str("module", "adapters.ws").Str("cause", cause.String()).Msg("property update")
	_, err := c.request(ctx, msgUpdateProperties, updatePropertiesBody{Patch: patch, Cause: cause})
	return err
}

func (c *Channel) BatchUpsertStream(ctx context.Context, specs []domain.StreamSpec) error {
	_, err := c.request(ctx, msgUpsertStreams, upsertStreamsBody{Streams: specs})
	return err
}

func (c *Channel) BatchDeleteStream(ctx context.Context, ids []domain.StreamID) error {
	_, err := c.request(ctx, msgDeleteStreams, deleteStreamsBody{Streams: ids})
	return err
}

func (c *Channel) SendChatMessage(ctx context.Context, text string) error {
	_, err := c.request(ctx, msgChatSend, chatSendBody{Text: text})
	return err
}

func (c *Channel) SendPeerMessage(ctx context.Context, to domain.UserID, msg core.PeerMessage) error {
	_, err := c.request(ctx, msgPeerSend, peerSendBody{To: to, Msg: msg})
	return err
}

// Close shuts the connection down and fails every outstanding request.
func (c *Channel) Close() {
	c.once.Do(func() {
		close(c.done)
		close(c.send)
		_ = c.conn.Close()

		c.mu.Lock()
		for seq, ch := range c.pending {
			ch <- pendingResult{err: core.ErrChannelDown}
			delete(c.pending, seq)
		}
		c.mu.Unlock()
	})
}

func (c *Channel) request(ctx context.Context, typ string, body any) (json.RawMessage, error) {
	seq := c.seq.Add(1)
	frame, err := marshalEnvelope(typ, seq, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", typ, err)
	}

	res := make(chan pendingResult, 1)
	c.mu.Lock()
	c.pending[seq] = res
	c.mu.Unlock()

	if err := c.trySend(frame); err != nil {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", typ, err)
	}

	select {
	case r := <-res:
		if r.err != nil {
			return nil, fmt.Errorf("%s: %w", typ, r.err)
		}
		return r.data, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		return nil, core.ErrChannelDown
	}
}

func (c *Channel) trySend(frame []byte) error {
	select {
	case <-c.done:
		return core.ErrChannelDown
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *Channel) writePump() {
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
			return
		}
	}
}

func (c *Channel) readPump() {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				log.Info().Err(err).Str("module", "adapters.ws").Msg("readPump closing")
			}
			return
		}
		c.handleFrame(data)
	}
}

// handleFrame routes one inbound frame. Malformed payloads are logged
// and dropped, never propagated.
func (c *Channel) handleFrame(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("bad envelope dropped")
		return
	}

	switch env.Type {
	case msgAck:
		c.resolveAck(env)
	case msgMembers:
		var b membersBody
		if !c.decode(env, &b) {
			return
		}
		if h := c.current().OnMembersChanged; h != nil {
			h(b.Scope, b.Users)
		}
	case msgStreams:
		var b streamsBody
		if !c.decode(env, &b) {
			return
		}
		list := make(domain.StreamList, len(b.Streams))
		for _, s := range b.Streams {
			list[s.ID] = s
		}
		if h := c.current().OnStreamsChanged; h != nil {
			h(b.Scope, b.Kind, list)
		}
	case msgProperties:
		var snap core.PropertySnapshot
		if !c.decode(env, &snap) {
			return
		}
		if h := c.current().OnPropertiesUpdated; h != nil {
			h(snap)
		}
	case msgChat:
		var b chatBody
		if !c.decode(env, &b) {
			return
		}
		if h := c.current().OnChatMessage; h != nil {
			h(domain.ChatMessage{
				Kind:     domain.ChatUser,
				From:     b.From,
				FromName: b.FromName,
				Text:     b.Text,
				At:       time.Now(),
			})
		}
	case msgPeer:
		var msg core.PeerMessage
		if !c.decode(env, &msg) {
			return
		}
		if h := c.current().OnPeerMessage; h != nil {
			h(msg)
		}
	case msgPong:
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown frame")
	}
}

func (c *Channel) resolveAck(env envelope) {
	var b ackBody
	if err := json.Unmarshal(env.Body, &b); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("bad ack dropped")
		return
	}
	c.mu.Lock()
	res, ok := c.pending[env.Seq]
	delete(c.pending, env.Seq)
	c.mu.Unlock()
	if !ok {
		log.Warn().Uint64("seq", env.Seq).Str("module", "adapters.ws").Msg("ack without request")
		return
	}
	if b.Error != "" {
		res <- pendingResult{err: errors.New(b.Error)}
		return
	}
	res <- pendingResult{data: b.Data}
}

func (c *Channel) decode(env envelope, v any) bool {
	if err := json.Unmarshal(env.Body, v); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Str("type", env.Type).Msg("bad payload dropped")
		return false
	}
	return true
}

func (c *Channel) current() core.Handlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers
}
