// Package ws implements the RoomChannel capability over a websocket
// signaling connection with a JSON envelope protocol.
package ws

import (
	"encoding/json"

	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
)

// envelope frames every message in both directions. Requests carry a
// seq the server echoes back in its ack; notifications have no seq.
type envelope struct {
	Type string          `json:"type"`
	Seq  uint64          `json:"seq,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

const (
	msgLogin            = "login"
	msgJoin             = "join"
	msgLeave            = "leave"
	msgUpdateProperties = "update_properties"
	msgUpsertStreams    = "upsert_streams"
	msgDeleteStreams    = "delete_streams"
	msgChatSend         = "chat_send"
	msgPeerSend         = "peer_send"
	msgPing             = "ping"

	msgAck        = "ack"
	msgMembers    = "members_changed"
	msgStreams    = "streams_changed"
	msgProperties = "properties_updated"
	msgChat       = "chat_message"
	msgPeer       = "peer_message"
	msgPong       = "pong"
)

type ackBody struct {
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type loginBody struct {
	User domain.UserID `json:"userUuid"`
}

type joinBody struct {
	Room domain.RoomID      `json:"roomUuid"`
	User domain.UserID      `json:"userUuid"`
	Name string             `json:"userName"`
	Role domain.ChannelRole `json:"role"`
}

type updatePropertiesBody struct {
	Patch domain.PropertyPatch `json:"patch"`
	Cause core.Cause           `json:"cause"`
}

type upsertStreamsBody struct {
	Streams []domain.StreamSpec `json:"streams"`
}

type deleteStreamsBody struct {
	Streams []domain.StreamID `json:"streams"`
}

type chatSendBody struct {
	Text string `json:"text"`
}

type peerSendBody struct {
	To  domain.UserID    `json:"to"`
	Msg core.PeerMessage `json:"msg"`
}

type membersBody struct {
	Scope core.Scope      `json:"scope"`
	Users domain.UserList `json:"users"`
}

type streamsBody struct {
	Scope   core.Scope       `json:"scope"`
	Kind    core.StreamScope `json:"kind"`
	Streams []domain.Stream  `json:"streams"`
}

type chatBody struct {
	From     domain.UserID `json:"from"`
	FromName string        `json:"fromName"`
	Text     string        `json:"text"`
}

func marshalEnvelope(typ string, seq uint64, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: typ, Seq: seq, Body: raw})
}
