package domain

type StreamID string

// StreamType distinguishes the main camera/mic stream from screen share.
type StreamType int

const (
	StreamMain StreamType = iota
	StreamScreen
)

// MediaState is the desired on/off bit carried on a stream descriptor.
type MediaState int

const (
	MediaOff MediaState = 0
	MediaOn  MediaState = 1
)

func (s MediaState) Enabled() bool { return s == MediaOn }

// Stream is one published media stream as reported by the transport.
type Stream struct {
	ID     StreamID   `json:"streamUuid"`
	Owner  UserID     `json:"userUuid"`
	Type   StreamType `json:"type"`
	Video  MediaState `json:"videoState"`
	Audio  MediaState `json:"audioState"`
	Online bool       `json:"online"`
}

// StreamList is the published-stream set keyed by stream id;
// replaced wholesale on stream-list notifications.
type StreamList map[StreamID]Stream

func (l StreamList) OwnedBy(uid UserID, st StreamType) (Stream, bool) {
	for _, s := range l {
		if s.Owner == uid && s.Type == st {
			return s, true
		}
	}
	return Stream{}, false
}

// AnyOnline reports whether any online stream of the given type exists.
func (l StreamList) AnyOnline(st StreamType) bool {
	for _, s := range l {
		if s.Type == st && s.Online {
			return true
		}
	}
	return false
}

// StreamSpec is the payload of a batch stream upsert.
type StreamSpec struct {
	ID    StreamID   `json:"streamUuid"`
	Owner UserID     `json:"userUuid"`
	Type  StreamType `json:"type"`
	Video MediaState `json:"videoState"`
	Audio MediaState `json:"audioState"`
}
