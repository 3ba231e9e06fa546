package audio

import (
	"testing"
)

func TestMulawRoundTrip(t *testing.T) {
	// μ-law is lossy; round-tripped samples should land within the
	// quantization step of their segment (~1/8 of magnitude, min 8).
	samples := []int16{0, 8, -8, 100, -100, 1000, -1000, 8000, -8000, 30000, -30000}

	encoded := PCMToMulaw(samples)
	decoded := MulawToPCM(encoded)

	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}

	for i, want := range samples {
		got := decoded[i]
		tolerance := int32(want) / 8
		if tolerance < 0 {
			tolerance = -tolerance
		}
		if tolerance < 8 {
			tolerance = 8
		}
		diff := int32(got) - int32(want)
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("sample %d: %d decoded to %d (tolerance %d)", i, want, got, tolerance)
		}
	}
}

func TestAlawRoundTrip(t *testing.T) {
	samples := []int16{0, 16, -16, 100, -100, 1000, -1000, 8000, -8000, 30000, -30000}

	encoded := PCMToAlaw(samples)
	decoded := AlawToPCM(encoded)

	for i, want := range samples {
		got := decoded[i]
		tolerance := int32(want) / 8
		if tolerance < 0 {
			tolerance = -tolerance
		}
		if tolerance < 16 {
			tolerance = 16
		}
		diff := int32(got) - int32(want)
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("sample %d: %d decoded to %d (tolerance %d)", i, want, got, tolerance)
		}
	}
}

func TestMulawEncodeExtremes(t *testing.T) {
	// Negating math.MinInt16 overflows int16; the encoder must clip, not wrap.
	encoded := PCMToMulaw([]int16{-32768, 32767})
	decoded := MulawToPCM(encoded)

	if decoded[0] > -30000 {
		t.Errorf("expected large negative sample, got %d", decoded[0])
	}
	if decoded[1] < 30000 {
		t.Errorf("expected large positive sample, got %d", decoded[1])
	}
}

func TestResampleSameRate(t *testing.T) {
	samples := []int16{100, 200, 300, 400, 500}
	result := Resample(samples, 8000, 8000)

	if len(result) != len(samples) {
		t.Errorf("expected %d samples, got %d", len(samples), len(result))
	}
	for i, s := range samples {
		if result[i] != s {
			t.Errorf("sample %d: expected %d, got %d", i, s, result[i])
		}
	}
}

func TestResampleUpsample(t *testing.T) {
	// 8kHz -> 24kHz (1:3 ratio), 20ms of audio
	samples := make([]int16, 160)
	for i := range samples {
		samples[i] = int16(i * 10)
	}

	result := Resample(samples, 8000, 24000)

	if len(result) != 480 {
		t.Errorf("expected 480 samples, got %d", len(result))
	}
	// Interpolated output should remain monotonic for a monotonic input
	for i := 1; i < len(result); i++ {
		if result[i] < result[i-1] {
			t.Errorf("sample %d: %d < %d, not monotonic", i, result[i], result[i-1])
			break
		}
	}
}

func TestResampleDownsample(t *testing.T) {
	samples := make([]int16, 480) // 20ms at 24kHz
	for i := range samples {
		samples[i] = int16(i)
	}

	result := Resample(samples, 24000, 8000)

	if len(result) != 160 {
		t.Errorf("expected 160 samples, got %d", len(result))
	}
}

func TestBytesToSamplesOddLength(t *testing.T) {
	if _, err := BytesToSamples([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for odd byte length")
	}
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256, -256}
	got, err := BytesToSamples(SamplesToBytes(samples))
	if err != nil {
		t.Fatalf("BytesToSamples() error: %v", err)
	}
	for i, want := range samples {
		if got[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got[i])
		}
	}
}

func TestTranscode(t *testing.T) {
	tests := []struct {
		name     string
		from     Format
		to       Format
		inBytes  int
		outBytes int
	}{
		{
			name:     "identity",
			from:     Telephony,
			to:       Telephony,
			inBytes:  160,
			outBytes: 160,
		},
		{
			name:     "mulaw 8k to pcm16 24k",
			from:     Telephony,
			to:       PipelinePCM,
			inBytes:  160,      // 20ms mulaw
			outBytes: 480 * 2,  // 20ms pcm16 at 24kHz
		},
		{
			name:     "pcm16 24k to mulaw 8k",
			from:     PipelinePCM,
			to:       Telephony,
			inBytes:  960, // 20ms pcm16 at 24kHz
			outBytes: 160,
		},
		{
			name:     "alaw to mulaw",
			from:     Format{Encoding: Alaw, SampleRate: 8000},
			to:       Telephony,
			inBytes:  160,
			outBytes: 160,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]byte, tt.inBytes)
			for i := range in {
				in[i] = byte(i)
			}
			out, err := Transcode(in, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Transcode() error: %v", err)
			}
			if len(out) != tt.outBytes {
				t.Errorf("expected %d output bytes, got %d", tt.outBytes, len(out))
			}
		})
	}
}

func TestTranscodeRejectsOddPCM(t *testing.T) {
	if _, err := Transcode([]byte{1, 2, 3}, PipelinePCM, Telephony); err == nil {
		t.Error("expected error for odd pcm16 input")
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{in: "audio/x-mulaw", want: Mulaw},
		{in: "PCMU", want: Mulaw},
		{in: "audio/x-alaw", want: Alaw},
		{in: "audio/l16", want: PCM16},
		{in: "opus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEncoding(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEncoding(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseEncoding(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
