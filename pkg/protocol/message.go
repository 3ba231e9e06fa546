// Package protocol defines the WebSocket message types exchanged with the
// media platform that terminates inbound SIP calls. The platform opens one
// WebSocket per call and streams base64-encoded audio frames both ways,
// following the media-stream wire shape used by telephony providers.
package protocol

import (
	"encoding/json"
	"fmt"
)

// EventType identifies the type of media-stream event.
type EventType string

const (
	// Platform → Worker events
	EventConnected EventType = "connected" // Socket established
	EventStart     EventType = "start"     // Call metadata, delivered once
	EventMedia     EventType = "media"     // Inbound audio frame
	EventDTMF      EventType = "dtmf"      // Keypad digit
	EventStop      EventType = "stop"      // Call ended

	// Worker → Platform events
	EventMark  EventType = "mark"  // Playback position marker
	EventClear EventType = "clear" // Flush queued outbound audio (barge-in)
)

// AttrPhoneNumber is the start-event attribute carrying the caller's number,
// set by the platform's SIP ingress. Absence is tolerated.
const AttrPhoneNumber = "sip.phoneNumber"

// Message is the envelope for all media-stream events. Exactly one of the
// typed payload fields is set, matching Event.
type Message struct {
	Event          EventType `json:"event"`
	SequenceNumber string    `json:"sequenceNumber,omitempty"`
	StreamSID      string    `json:"streamSid,omitempty"`

	Start *StartPayload `json:"start,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
	DTMF  *DTMFPayload  `json:"dtmf,omitempty"`
	Mark  *MarkPayload  `json:"mark,omitempty"`
	Stop  *StopPayload  `json:"stop,omitempty"`
}

// StartPayload carries call metadata. Attributes holds telephony-specific
// participant attributes (see AttrPhoneNumber).
type StartPayload struct {
	StreamSID   string            `json:"streamSid"`
	CallSID     string            `json:"callSid"`
	AccountSID  string            `json:"accountSid,omitempty"`
	Tracks      []string          `json:"tracks,omitempty"`
	MediaFormat MediaFormat       `json:"mediaFormat"`
	Attributes  map[string]string `json:"customParameters,omitempty"`
}

// MediaFormat describes the audio encoding of the stream.
type MediaFormat struct {
	Encoding   string `json:"encoding"` // "audio/x-mulaw", "audio/x-alaw", "audio/l16"
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// MediaPayload carries one audio frame.
type MediaPayload struct {
	Track     string `json:"track,omitempty"` // "inbound" or "outbound"
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"` // base64-encoded audio
}

// DTMFPayload carries a keypad press.
type DTMFPayload struct {
	Track string `json:"track,omitempty"`
	Digit string `json:"digit"`
}

// MarkPayload names a playback position marker.
type MarkPayload struct {
	Name string `json:"name"`
}

// StopPayload carries call-end metadata.
type StopPayload struct {
	CallSID string `json:"callSid,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Parse decodes a media-stream message from its JSON wire form.
func Parse(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}
	if msg.Event == "" {
		return nil, fmt.Errorf("protocol: message missing event type")
	}
	return &msg, nil
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// PhoneNumber returns the caller's phone number from the start attributes,
// or "" if the platform did not supply one.
func (s *StartPayload) PhoneNumber() string {
	if s == nil {
		return ""
	}
	return s.Attributes[AttrPhoneNumber]
}
