package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Common errors returned by pipelines.
var (
	ErrNotConnected   = errors.New("voice: pipeline not connected")
	ErrAlreadyStarted = errors.New("voice: pipeline already started")
	ErrMissingAPIKey  = errors.New("voice: missing API key")
)

// Pipeline is the interface to a hosted speech-to-speech conversation
// pipeline.
type Pipeline interface {
	// Lifecycle

	// Start establishes the connection and begins processing.
	// Call this after registering tools and setting up callbacks.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the pipeline.
	Stop() error

	// IsConnected returns true if the pipeline is connected and ready.
	IsConnected() bool

	// Audio I/O

	// SendAudio sends one frame of caller audio to the pipeline, encoded
	// per Config.InputFormat.
	SendAudio(audio []byte) error

	// OnAudioOut sets the callback for receiving agent audio, encoded per
	// Config.OutputFormat.
	OnAudioOut(fn func(audio []byte))

	// Events

	// OnSpeechStart is called when the caller starts speaking.
	OnSpeechStart(fn func())

	// OnSpeechEnd is called when the caller stops speaking.
	OnSpeechEnd(fn func())

	// OnTranscript is called with the caller's transcribed speech.
	// isFinal indicates whether this is the final transcript.
	OnTranscript(fn func(text string, isFinal bool))

	// OnResponse is called with the agent's text response.
	// isFinal indicates whether this is the final response.
	OnResponse(fn func(text string, isFinal bool))

	// OnError is called when an error occurs.
	OnError(fn func(err error))

	// Tools

	// RegisterTool adds a tool that the model can invoke.
	// Must be called before Start().
	RegisterTool(tool Tool)

	// OnToolCall sets an observer for tool invocations. The pipeline runs
	// the registered handler itself; this callback is notification only.
	OnToolCall(fn func(call ToolCall))

	// SubmitToolResult returns a tool call result to the model and asks it
	// to respond. Only needed for tools registered without a Handler.
	SubmitToolResult(callID string, result string) error

	// Control

	// Prompt asks the model to speak per the given instructions without
	// waiting for caller input. Used for the opening greeting.
	Prompt(instructions string) error

	// Interrupt stops the current agent response (for barge-in).
	Interrupt() error

	// Metrics & Config

	// Metrics returns current latency metrics.
	Metrics() Metrics

	// Config returns the current configuration.
	Config() Config
}

// PipelineFactory is a function that creates a Pipeline.
type PipelineFactory func(cfg Config) (Pipeline, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[Provider]PipelineFactory)
)

// Register sets the pipeline factory for a provider.
// Called by bundled implementations in init().
func Register(p Provider, f PipelineFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[p] = f
}

// New creates a new Pipeline with the given configuration.
// Returns an error if the config is invalid or the provider is not registered.
func New(cfg Config) (Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("voice: no pipeline registered for provider %q", cfg.Provider)
	}

	return f(cfg)
}

// Callbacks groups all pipeline callbacks for convenience.
// This can be used to set up all callbacks at once.
type Callbacks struct {
	OnAudioOut    func(audio []byte)
	OnSpeechStart func()
	OnSpeechEnd   func()
	OnTranscript  func(text string, isFinal bool)
	OnResponse    func(text string, isFinal bool)
	OnToolCall    func(call ToolCall)
	OnError       func(err error)
}

// Apply sets all callbacks on a pipeline.
func (c *Callbacks) Apply(p Pipeline) {
	if c.OnAudioOut != nil {
		p.OnAudioOut(c.OnAudioOut)
	}
	if c.OnSpeechStart != nil {
		p.OnSpeechStart(c.OnSpeechStart)
	}
	if c.OnSpeechEnd != nil {
		p.OnSpeechEnd(c.OnSpeechEnd)
	}
	if c.OnTranscript != nil {
		p.OnTranscript(c.OnTranscript)
	}
	if c.OnResponse != nil {
		p.OnResponse(c.OnResponse)
	}
	if c.OnToolCall != nil {
		p.OnToolCall(c.OnToolCall)
	}
	if c.OnError != nil {
		p.OnError(c.OnError)
	}
}
