package protocol

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestParseStartEvent(t *testing.T) {
	raw := `{
		"event": "start",
		"sequenceNumber": "1",
		"streamSid": "MZ1234",
		"start": {
			"streamSid": "MZ1234",
			"callSid": "CA5678",
			"tracks": ["inbound"],
			"mediaFormat": {"encoding": "audio/x-mulaw", "sampleRate": 8000, "channels": 1},
			"customParameters": {"sip.phoneNumber": "+15551234567"}
		}
	}`

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if msg.Event != EventStart {
		t.Errorf("expected event start, got %s", msg.Event)
	}
	if msg.Start == nil {
		t.Fatal("expected start payload")
	}
	if msg.Start.CallSID != "CA5678" {
		t.Errorf("expected call SID CA5678, got %s", msg.Start.CallSID)
	}
	if msg.Start.MediaFormat.SampleRate != 8000 {
		t.Errorf("expected sample rate 8000, got %d", msg.Start.MediaFormat.SampleRate)
	}
	if got := msg.Start.PhoneNumber(); got != "+15551234567" {
		t.Errorf("expected phone +15551234567, got %q", got)
	}
}

func TestParseStartEventWithoutPhoneNumber(t *testing.T) {
	raw := `{
		"event": "start",
		"streamSid": "MZ1",
		"start": {
			"streamSid": "MZ1",
			"callSid": "CA1",
			"mediaFormat": {"encoding": "audio/x-mulaw", "sampleRate": 8000, "channels": 1}
		}
	}`

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := msg.Start.PhoneNumber(); got != "" {
		t.Errorf("expected empty phone number, got %q", got)
	}
}

func TestParseMediaEvent(t *testing.T) {
	audio := []byte{0x7f, 0x7f, 0xff, 0x00}
	raw, _ := json.Marshal(map[string]any{
		"event":     "media",
		"streamSid": "MZ1",
		"media": map[string]any{
			"track":   "inbound",
			"payload": base64.StdEncoding.EncodeToString(audio),
		},
	})

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if msg.Event != EventMedia {
		t.Errorf("expected event media, got %s", msg.Event)
	}

	decoded, err := msg.Media.Audio()
	if err != nil {
		t.Fatalf("Audio() error: %v", err)
	}
	if len(decoded) != len(audio) {
		t.Errorf("expected %d audio bytes, got %d", len(audio), len(decoded))
	}
	for i := range audio {
		if decoded[i] != audio[i] {
			t.Errorf("audio byte %d: expected %x, got %x", i, audio[i], decoded[i])
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid json", raw: `{"event":`},
		{name: "missing event", raw: `{"streamSid": "MZ1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.raw)); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}

func TestNewMediaMessageRoundTrip(t *testing.T) {
	audio := []byte{1, 2, 3, 4, 5}
	msg := NewMediaMessage("MZ9", audio)

	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if parsed.Event != EventMedia {
		t.Errorf("expected media event, got %s", parsed.Event)
	}
	if parsed.StreamSID != "MZ9" {
		t.Errorf("expected stream SID MZ9, got %s", parsed.StreamSID)
	}

	decoded, err := parsed.Media.Audio()
	if err != nil {
		t.Fatalf("Audio() error: %v", err)
	}
	if string(decoded) != string(audio) {
		t.Errorf("audio round trip mismatch: %v != %v", decoded, audio)
	}
}

func TestNewClearMessage(t *testing.T) {
	msg := NewClearMessage("MZ2")
	if msg.Event != EventClear {
		t.Errorf("expected clear event, got %s", msg.Event)
	}
	if msg.StreamSID != "MZ2" {
		t.Errorf("expected stream SID MZ2, got %s", msg.StreamSID)
	}
}
