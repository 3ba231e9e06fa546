// Package bundled provides all-in-one voice pipeline implementations.
package bundled

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/storline-ai/storline/internal/log"
	"github.com/storline-ai/storline/pkg/voice"
)

const (
	openAIRealtimeURL = "wss://api.openai.com/v1/realtime"
	openAIModel       = "gpt-4o-realtime-preview-2024-12-17"
)

func init() {
	voice.Register(voice.ProviderOpenAI, func(cfg voice.Config) (voice.Pipeline, error) {
		return NewOpenAI(cfg)
	})
}

// OpenAI implements voice.Pipeline using OpenAI's Realtime API.
// A single WebSocket carries caller audio up and agent audio down, with
// VAD, transcription, reasoning and synthesis all server-side.
type OpenAI struct {
	config voice.Config

	// WebSocket connection
	ws   *websocket.Conn
	wsMu sync.Mutex

	// Tools
	tools    []voice.Tool
	toolsMap map[string]voice.Tool

	// Session state
	mu           sync.RWMutex
	connected    bool
	sessionReady bool
	closed       bool
	ctx          context.Context
	cancel       context.CancelFunc

	// Metrics
	metrics *voice.MetricsCollector

	// Callbacks
	onAudioOut    func(audio []byte)
	onSpeechStart func()
	onSpeechEnd   func()
	onTranscript  func(text string, isFinal bool)
	onResponse    func(text string, isFinal bool)
	onToolCall    func(call voice.ToolCall)
	onError       func(err error)
}

// NewOpenAI creates a new OpenAI Realtime pipeline.
func NewOpenAI(cfg voice.Config) (*OpenAI, error) {
	if cfg.OpenAIKey == "" {
		return nil, voice.ErrMissingAPIKey
	}

	return &OpenAI{
		config:   cfg,
		tools:    []voice.Tool{},
		toolsMap: make(map[string]voice.Tool),
		metrics:  voice.NewMetricsCollector(),
	}, nil
}

// Start establishes the WebSocket connection and begins processing.
func (o *OpenAI) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.connected {
		o.mu.Unlock()
		return voice.ErrAlreadyStarted
	}
	o.mu.Unlock()

	o.ctx, o.cancel = context.WithCancel(ctx)

	model := o.config.Model
	if model == "" {
		model = openAIModel
	}
	url := fmt.Sprintf("%s?model=%s", openAIRealtimeURL, model)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+o.config.OpenAIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	ws, _, err := dialer.DialContext(o.ctx, url, header)
	if err != nil {
		return fmt.Errorf("voice/openai: failed to connect: %w", err)
	}
	o.ws = ws

	o.mu.Lock()
	o.connected = true
	o.closed = false
	o.mu.Unlock()

	// Configure session
	if err := o.configureSession(); err != nil {
		o.Stop()
		return fmt.Errorf("voice/openai: failed to configure session: %w", err)
	}

	go o.handleMessages()

	return nil
}

// Stop gracefully shuts down the pipeline.
func (o *OpenAI) Stop() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.connected = false
	o.sessionReady = false
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}

	if o.ws != nil {
		return o.ws.Close()
	}
	return nil
}

// IsConnected returns true if connected and ready.
func (o *OpenAI) IsConnected() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.connected && o.sessionReady && !o.closed
}

// SendAudio sends one frame of caller audio to the pipeline.
func (o *OpenAI) SendAudio(audio []byte) error {
	o.mu.RLock()
	if !o.connected || o.closed {
		o.mu.RUnlock()
		return voice.ErrNotConnected
	}
	o.mu.RUnlock()

	o.metrics.IncrementAudioIn()

	return o.sendJSON(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(audio),
	})
}

// OnAudioOut sets the callback for audio output.
func (o *OpenAI) OnAudioOut(fn func(audio []byte)) {
	o.onAudioOut = fn
}

// OnSpeechStart sets the callback for speech start.
func (o *OpenAI) OnSpeechStart(fn func()) {
	o.onSpeechStart = fn
}

// OnSpeechEnd sets the callback for speech end.
func (o *OpenAI) OnSpeechEnd(fn func()) {
	o.onSpeechEnd = fn
}

// OnTranscript sets the callback for transcripts.
func (o *OpenAI) OnTranscript(fn func(text string, isFinal bool)) {
	o.onTranscript = fn
}

// OnResponse sets the callback for agent responses.
func (o *OpenAI) OnResponse(fn func(text string, isFinal bool)) {
	o.onResponse = fn
}

// OnError sets the error callback.
func (o *OpenAI) OnError(fn func(err error)) {
	o.onError = fn
}

// RegisterTool adds a tool the model can invoke.
func (o *OpenAI) RegisterTool(tool voice.Tool) {
	o.tools = append(o.tools, tool)
	o.toolsMap[tool.Name] = tool
}

// OnToolCall sets the observer for tool invocations.
func (o *OpenAI) OnToolCall(fn func(call voice.ToolCall)) {
	o.onToolCall = fn
}

// SubmitToolResult returns a tool result to the model.
func (o *OpenAI) SubmitToolResult(callID string, result string) error {
	msg := map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  result,
		},
	}

	if err := o.sendJSON(msg); err != nil {
		return err
	}

	// Request a spoken response after the tool result
	return o.sendJSON(map[string]string{
		"type": "response.create",
	})
}

// Prompt asks the model to speak per the given instructions.
func (o *OpenAI) Prompt(instructions string) error {
	return o.sendJSON(map[string]any{
		"type": "response.create",
		"response": map[string]any{
			"instructions": instructions,
		},
	})
}

// Interrupt stops the current agent response.
func (o *OpenAI) Interrupt() error {
	return o.sendJSON(map[string]string{
		"type": "response.cancel",
	})
}

// Metrics returns current latency metrics.
func (o *OpenAI) Metrics() voice.Metrics {
	return o.metrics.Current()
}

// Config returns the current configuration.
func (o *OpenAI) Config() voice.Config {
	return o.config
}

// configureSession sets up the Realtime session with current config.
func (o *OpenAI) configureSession() error {
	apiTools := make([]map[string]any, len(o.tools))
	for i, tool := range o.tools {
		params := tool.Parameters
		if params == nil {
			params = map[string]any{}
		}
		required := tool.Required
		if required == nil {
			required = []string{}
		}
		apiTools[i] = map[string]any{
			"type":        "function",
			"name":        tool.Name,
			"description": tool.Description,
			"parameters": map[string]any{
				"type":       "object",
				"properties": params,
				"required":   required,
			},
		}
	}

	prefixPaddingMs := int(o.config.VADPrefixPadding.Milliseconds())
	if prefixPaddingMs == 0 {
		prefixPaddingMs = 300
	}
	silenceDurationMs := int(o.config.VADSilenceDuration.Milliseconds())
	if silenceDurationMs == 0 {
		silenceDurationMs = 500
	}
	threshold := o.config.VADThreshold
	if threshold == 0 {
		threshold = 0.5
	}

	return o.sendJSON(map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"modalities":          []string{"text", "audio"},
			"instructions":        o.config.SystemPrompt,
			"voice":               o.config.Voice,
			"input_audio_format":  string(o.config.InputFormat),
			"output_audio_format": string(o.config.OutputFormat),
			"input_audio_transcription": map[string]any{
				"model": "whisper-1",
			},
			"turn_detection": map[string]any{
				"type":                "server_vad",
				"threshold":           threshold,
				"prefix_padding_ms":   prefixPaddingMs,
				"silence_duration_ms": silenceDurationMs,
			},
			"temperature": o.config.Temperature,
			"tools":       apiTools,
			"tool_choice": "auto",
		},
	})
}

// sendJSON writes a JSON message to the WebSocket. Writes are serialized;
// gorilla/websocket allows only one concurrent writer.
func (o *OpenAI) sendJSON(v any) error {
	o.wsMu.Lock()
	defer o.wsMu.Unlock()

	if o.ws == nil {
		return voice.ErrNotConnected
	}
	return o.ws.WriteJSON(v)
}

// handleMessages processes incoming WebSocket messages until the connection
// closes.
func (o *OpenAI) handleMessages() {
	for {
		o.mu.RLock()
		closed := o.closed
		o.mu.RUnlock()
		if closed {
			return
		}

		_, message, err := o.ws.ReadMessage()
		if err != nil {
			o.mu.RLock()
			closed := o.closed
			o.mu.RUnlock()

			if !closed && o.onError != nil {
				o.onError(err)
			}
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		msgType, _ := msg["type"].(string)

		switch msgType {
		case "session.created":
			o.mu.Lock()
			o.sessionReady = true
			o.mu.Unlock()
			if o.config.Debug {
				log.Debug("realtime session created")
			}

		case "session.updated":
			if o.config.Debug {
				log.Debug("realtime session configured")
			}

		case "input_audio_buffer.speech_started":
			if o.onSpeechStart != nil {
				o.onSpeechStart()
			}

		case "input_audio_buffer.speech_stopped":
			o.metrics.MarkSpeechEnd()
			if o.onSpeechEnd != nil {
				o.onSpeechEnd()
			}

		case "conversation.item.input_audio_transcription.completed":
			o.metrics.MarkTranscript()
			if transcript, ok := msg["transcript"].(string); ok && o.onTranscript != nil {
				o.onTranscript(transcript, true)
			}

		case "response.audio.delta":
			o.metrics.MarkFirstAudio()
			o.metrics.IncrementAudioOut()
			if delta, ok := msg["delta"].(string); ok && o.onAudioOut != nil {
				audioData, err := base64.StdEncoding.DecodeString(delta)
				if err == nil {
					o.onAudioOut(audioData)
				}
			}

		case "response.audio.done":
			o.metrics.MarkResponseDone()
			if o.config.ProfileLatency {
				m := o.metrics.Current()
				log.Info("turn latency", "breakdown", m.FormatLatency())
			}

		case "response.audio_transcript.delta":
			o.metrics.MarkFirstToken()
			if delta, ok := msg["delta"].(string); ok && o.onResponse != nil {
				o.onResponse(delta, false)
			}

		case "response.audio_transcript.done":
			if transcript, ok := msg["transcript"].(string); ok && o.onResponse != nil {
				o.onResponse(transcript, true)
			}

		case "response.function_call_arguments.done":
			o.handleFunctionCall(msg)

		case "error":
			if errData, ok := msg["error"].(map[string]any); ok {
				if errMsg, ok := errData["message"].(string); ok && o.onError != nil {
					o.onError(fmt.Errorf("voice/openai: API error: %s", errMsg))
				}
			}
		}
	}
}

// handleFunctionCall dispatches a completed tool invocation to its registered
// handler and submits the result. Handler errors become spoken failure text;
// a tool call must never take the conversation down with it.
func (o *OpenAI) handleFunctionCall(msg map[string]any) {
	name, _ := msg["name"].(string)
	callID, _ := msg["call_id"].(string)
	argsJSON, _ := msg["arguments"].(string)

	args := map[string]any{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			log.Warn("unparseable tool arguments", "tool", name, "error", err)
		}
	}

	o.metrics.IncrementToolCalls()

	call := voice.ToolCall{ID: callID, Name: name, Arguments: args}
	if o.onToolCall != nil {
		o.onToolCall(call)
	}

	tool, ok := o.toolsMap[name]
	if !ok || tool.Handler == nil {
		// Unhandled tools are the caller's responsibility via OnToolCall +
		// SubmitToolResult.
		if !ok {
			log.Warn("model invoked unknown tool", "tool", name)
		}
		return
	}

	// Run the handler off the read loop so a slow webhook can't stall
	// audio delivery.
	go func() {
		result, err := tool.Handler(call.Arguments)
		if err != nil {
			log.Warn("tool handler failed", "tool", name, "error", err)
			result = "The tool could not be executed: " + err.Error()
		}
		if err := o.SubmitToolResult(callID, result); err != nil {
			log.Warn("failed to submit tool result", "tool", name, "error", err)
		}
	}()
}
