// Package audio converts call audio between the telephony leg and the voice
// pipeline. Telephony streams arrive as 8kHz G.711; the pipeline side is
// either G.711 passthrough or 24kHz PCM16 depending on configuration.
package audio

import "fmt"

// Format describes an audio encoding plus sample rate.
type Format struct {
	Encoding   Encoding
	SampleRate int
}

// Encoding identifies the byte-level audio codec.
type Encoding string

const (
	Mulaw Encoding = "mulaw" // G.711 μ-law, 1 byte/sample
	Alaw  Encoding = "alaw"  // G.711 A-law, 1 byte/sample
	PCM16 Encoding = "pcm16" // Linear PCM, little-endian, 2 bytes/sample
)

// Common formats.
var (
	Telephony    = Format{Encoding: Mulaw, SampleRate: 8000}  // G.711 μ-law trunk audio
	PipelinePCM  = Format{Encoding: PCM16, SampleRate: 24000} // OpenAI Realtime pcm16
	PipelineG711 = Format{Encoding: Mulaw, SampleRate: 8000}  // OpenAI Realtime g711_ulaw
)

// ParseEncoding maps a media-format MIME-ish name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "audio/x-mulaw", "mulaw", "ulaw", "PCMU":
		return Mulaw, nil
	case "audio/x-alaw", "alaw", "PCMA":
		return Alaw, nil
	case "audio/l16", "linear16", "pcm16", "pcm":
		return PCM16, nil
	default:
		return "", fmt.Errorf("audio: unsupported encoding %q", name)
	}
}

// Transcode converts audio bytes from one format to another. A same-format
// conversion returns the input unchanged.
func Transcode(data []byte, from, to Format) ([]byte, error) {
	if from == to {
		return data, nil
	}

	var pcm []int16
	switch from.Encoding {
	case Mulaw:
		pcm = MulawToPCM(data)
	case Alaw:
		pcm = AlawToPCM(data)
	case PCM16:
		var err error
		pcm, err = BytesToSamples(data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("audio: unsupported input encoding %q", from.Encoding)
	}

	if from.SampleRate != to.SampleRate {
		pcm = Resample(pcm, from.SampleRate, to.SampleRate)
	}

	switch to.Encoding {
	case Mulaw:
		return PCMToMulaw(pcm), nil
	case Alaw:
		return PCMToAlaw(pcm), nil
	case PCM16:
		return SamplesToBytes(pcm), nil
	default:
		return nil, fmt.Errorf("audio: unsupported output encoding %q", to.Encoding)
	}
}

// Resample converts samples from one rate to another using linear
// interpolation. Good enough for speech; not intended for music.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	newLen := int(float64(len(samples)) / ratio)
	if newLen == 0 {
		return []int16{}
	}

	result := make([]int16, newLen)
	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		if srcIdx >= len(samples)-1 {
			result[i] = samples[len(samples)-1]
		} else {
			// Linear interpolation
			s1 := float64(samples[srcIdx])
			s2 := float64(samples[srcIdx+1])
			result[i] = int16(s1 + frac*(s2-s1))
		}
	}

	return result
}

// BytesToSamples converts raw PCM16 little-endian bytes to int16 samples.
func BytesToSamples(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("audio: odd PCM16 data length %d", len(data))
	}
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples, nil
}

// SamplesToBytes converts int16 samples to raw PCM16 little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}
