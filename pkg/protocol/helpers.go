package protocol

import "encoding/base64"

// NewMediaMessage builds an outbound audio frame for the given stream.
// Audio bytes are base64-encoded on the wire.
func NewMediaMessage(streamSID string, audio []byte) *Message {
	return &Message{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media: &MediaPayload{
			Payload: base64.StdEncoding.EncodeToString(audio),
		},
	}
}

// NewMarkMessage builds a playback marker event.
func NewMarkMessage(streamSID, name string) *Message {
	return &Message{
		Event:     EventMark,
		StreamSID: streamSID,
		Mark:      &MarkPayload{Name: name},
	}
}

// NewClearMessage builds a clear event that flushes any audio the platform
// has queued for playback. Sent when the caller interrupts the agent.
func NewClearMessage(streamSID string) *Message {
	return &Message{
		Event:     EventClear,
		StreamSID: streamSID,
	}
}

// Audio decodes the base64 audio payload of a media event.
func (m *MediaPayload) Audio() ([]byte, error) {
	return base64.StdEncoding.DecodeString(m.Payload)
}
