package voice

import (
	"errors"
	"time"
)

// Provider identifies the voice pipeline provider.
type Provider string

const (
	// ProviderOpenAI uses OpenAI's Realtime API (speech-to-speech with
	// built-in VAD, transcription and TTS).
	ProviderOpenAI Provider = "openai"
)

// AudioFormat identifies the audio encoding on the pipeline socket.
type AudioFormat string

const (
	// FormatPCM16 is 24kHz little-endian linear PCM.
	FormatPCM16 AudioFormat = "pcm16"

	// FormatG711Ulaw is 8kHz G.711 μ-law, matching telephony trunks. Using
	// it lets call audio pass through without transcoding.
	FormatG711Ulaw AudioFormat = "g711_ulaw"

	// FormatG711Alaw is 8kHz G.711 A-law.
	FormatG711Alaw AudioFormat = "g711_alaw"
)

// Config holds all tunable parameters for voice pipelines.
type Config struct {
	// Provider selection
	Provider Provider

	// API keys (provider-specific)
	OpenAIKey string

	// Model and voice
	Model string // Realtime model name (default: provider-specific)
	Voice string // TTS voice name (default: "alloy")

	// Audio settings
	InputFormat  AudioFormat // Audio sent to the pipeline (default: g711_ulaw)
	OutputFormat AudioFormat // Audio received from the pipeline (default: g711_ulaw)

	// VAD (Voice Activity Detection) settings
	VADThreshold       float64       // Activation threshold 0.0-1.0 (default: 0.5)
	VADPrefixPadding   time.Duration // Audio to include before speech start (default: 300ms)
	VADSilenceDuration time.Duration // Silence duration to detect end of speech (default: 500ms)

	// LLM settings
	Temperature  float64 // Response randomness 0.0-2.0 (default: 0.8)
	SystemPrompt string  // System instructions for the agent

	// Debug settings
	Debug          bool // Enable debug logging
	ProfileLatency bool // Log detailed latency breakdown per turn
}

// DefaultConfig returns a Config with telephony-friendly defaults.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderOpenAI,

		Voice:        "alloy",
		InputFormat:  FormatG711Ulaw,
		OutputFormat: FormatG711Ulaw,

		VADThreshold:       0.5,
		VADPrefixPadding:   300 * time.Millisecond,
		VADSilenceDuration: 500 * time.Millisecond,

		Temperature: 0.8,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return ErrMissingAPIKey
		}
	default:
		return errors.New("voice: unknown provider: " + string(c.Provider))
	}

	switch c.InputFormat {
	case FormatPCM16, FormatG711Ulaw, FormatG711Alaw:
	default:
		return errors.New("voice: unknown input format: " + string(c.InputFormat))
	}

	switch c.OutputFormat {
	case FormatPCM16, FormatG711Ulaw, FormatG711Alaw:
	default:
		return errors.New("voice: unknown output format: " + string(c.OutputFormat))
	}

	if c.VADThreshold < 0 || c.VADThreshold > 1 {
		return errors.New("voice: VAD threshold must be between 0 and 1")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("voice: temperature must be between 0 and 2")
	}

	return nil
}

// WithSystemPrompt returns a copy with the system prompt set.
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// WithAudioFormat returns a copy with both audio formats set.
func (c Config) WithAudioFormat(format AudioFormat) Config {
	c.InputFormat = format
	c.OutputFormat = format
	return c
}

// WithVoice returns a copy with the TTS voice set.
func (c Config) WithVoice(v string) Config {
	c.Voice = v
	return c
}

// WithVAD returns a copy with VAD settings.
func (c Config) WithVAD(threshold float64, silenceDuration time.Duration) Config {
	c.VADThreshold = threshold
	c.VADSilenceDuration = silenceDuration
	return c
}

// WithDebug returns a copy with debug enabled.
func (c Config) WithDebug(debug bool) Config {
	c.Debug = debug
	return c
}
