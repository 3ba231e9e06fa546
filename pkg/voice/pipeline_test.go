package voice

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected provider openai, got %s", cfg.Provider)
	}

	if cfg.InputFormat != FormatG711Ulaw {
		t.Errorf("expected g711_ulaw input, got %s", cfg.InputFormat)
	}

	if cfg.OutputFormat != FormatG711Ulaw {
		t.Errorf("expected g711_ulaw output, got %s", cfg.OutputFormat)
	}

	if cfg.VADThreshold != 0.5 {
		t.Errorf("expected VAD threshold 0.5, got %f", cfg.VADThreshold)
	}

	if cfg.Voice != "alloy" {
		t.Errorf("expected voice alloy, got %s", cfg.Voice)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := DefaultConfig()
	valid.OpenAIKey = "test-key"

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.OpenAIKey = "" },
			wantErr: true,
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "acme" },
			wantErr: true,
		},
		{
			name:    "unknown input format",
			mutate:  func(c *Config) { c.InputFormat = "opus" },
			wantErr: true,
		},
		{
			name:    "invalid vad threshold too low",
			mutate:  func(c *Config) { c.VADThreshold = -0.1 },
			wantErr: true,
		},
		{
			name:    "invalid vad threshold too high",
			mutate:  func(c *Config) { c.VADThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "invalid temperature",
			mutate:  func(c *Config) { c.Temperature = 3.0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigWithMethods(t *testing.T) {
	cfg := DefaultConfig()

	cfg = cfg.WithSystemPrompt("You are a storage assistant")
	if cfg.SystemPrompt != "You are a storage assistant" {
		t.Errorf("WithSystemPrompt did not set prompt")
	}

	cfg = cfg.WithAudioFormat(FormatPCM16)
	if cfg.InputFormat != FormatPCM16 || cfg.OutputFormat != FormatPCM16 {
		t.Errorf("WithAudioFormat did not set both formats")
	}

	cfg = cfg.WithVoice("verse")
	if cfg.Voice != "verse" {
		t.Errorf("WithVoice did not set voice, got %s", cfg.Voice)
	}

	cfg = cfg.WithVAD(0.8, 300*time.Millisecond)
	if cfg.VADThreshold != 0.8 {
		t.Errorf("WithVAD did not set threshold")
	}
	if cfg.VADSilenceDuration != 300*time.Millisecond {
		t.Errorf("WithVAD did not set silence duration")
	}

	cfg = cfg.WithDebug(true)
	if !cfg.Debug {
		t.Errorf("WithDebug did not set debug flag")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "acme"
	cfg.OpenAIKey = "test-key"

	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestMetricsCollector(t *testing.T) {
	mc := NewMetricsCollector()

	// Simulate a conversation turn
	mc.MarkSpeechEnd()
	time.Sleep(10 * time.Millisecond)
	mc.MarkTranscript()
	time.Sleep(10 * time.Millisecond)
	mc.MarkFirstToken()
	time.Sleep(10 * time.Millisecond)
	mc.MarkFirstAudio()
	time.Sleep(10 * time.Millisecond)
	mc.MarkResponseDone()

	metrics := mc.Current()

	if metrics.ASRLatency <= 0 {
		t.Errorf("expected positive ASR latency, got %v", metrics.ASRLatency)
	}
	if metrics.FirstToken <= metrics.ASRLatency {
		t.Errorf("expected first token after transcript, got %v <= %v",
			metrics.FirstToken, metrics.ASRLatency)
	}
	if metrics.TotalLatency < metrics.FirstAudio {
		t.Errorf("expected total latency >= first audio, got %v < %v",
			metrics.TotalLatency, metrics.FirstAudio)
	}

	avg := mc.Average()
	if avg.TotalLatency <= 0 {
		t.Errorf("expected archived turn in average, got %v", avg.TotalLatency)
	}
}

func TestMetricsFirstMarksAreSticky(t *testing.T) {
	mc := NewMetricsCollector()
	mc.MarkSpeechEnd()
	mc.MarkFirstAudio()
	first := mc.Current().FirstAudioTime

	time.Sleep(5 * time.Millisecond)
	mc.MarkFirstAudio()

	if got := mc.Current().FirstAudioTime; !got.Equal(first) {
		t.Errorf("MarkFirstAudio overwrote first timestamp: %v != %v", got, first)
	}
}

func TestMetricsFormatLatency(t *testing.T) {
	m := Metrics{
		ASRLatency:   50 * time.Millisecond,
		FirstToken:   200 * time.Millisecond,
		FirstAudio:   320 * time.Millisecond,
		TotalLatency: 500 * time.Millisecond,
	}

	if m.FormatLatency() == "" {
		t.Error("FormatLatency returned empty string")
	}
}

func TestToolStruct(t *testing.T) {
	tool := Tool{
		Name:        "check_availability",
		Description: "Checks unit availability",
		Parameters: map[string]any{
			"location": map[string]any{"type": "string"},
			"size":     map[string]any{"type": "integer"},
		},
		Required: []string{"location", "size"},
		Handler: func(args map[string]any) (string, error) {
			return "available", nil
		},
	}

	if tool.Name != "check_availability" {
		t.Errorf("expected name check_availability, got %s", tool.Name)
	}

	result, err := tool.Handler(nil)
	if err != nil {
		t.Errorf("handler returned error: %v", err)
	}
	if result != "available" {
		t.Errorf("expected result 'available', got '%s'", result)
	}
}

func TestCallbacks(t *testing.T) {
	var audioReceived bool
	var speechStarted bool
	var speechEnded bool
	var transcriptReceived bool
	var responseReceived bool
	var toolCalled bool
	var errorReceived bool

	callbacks := Callbacks{
		OnAudioOut:    func(audio []byte) { audioReceived = true },
		OnSpeechStart: func() { speechStarted = true },
		OnSpeechEnd:   func() { speechEnded = true },
		OnTranscript:  func(text string, isFinal bool) { transcriptReceived = true },
		OnResponse:    func(text string, isFinal bool) { responseReceived = true },
		OnToolCall:    func(call ToolCall) { toolCalled = true },
		OnError:       func(err error) { errorReceived = true },
	}

	p := &fakePipeline{}
	callbacks.Apply(p)

	p.onAudioOut([]byte{1, 2, 3})
	p.onSpeechStart()
	p.onSpeechEnd()
	p.onTranscript("hello", true)
	p.onResponse("hi", false)
	p.onToolCall(ToolCall{ID: "1", Name: "check_availability"})
	p.onError(nil)

	if !audioReceived {
		t.Error("OnAudioOut callback not invoked")
	}
	if !speechStarted {
		t.Error("OnSpeechStart callback not invoked")
	}
	if !speechEnded {
		t.Error("OnSpeechEnd callback not invoked")
	}
	if !transcriptReceived {
		t.Error("OnTranscript callback not invoked")
	}
	if !responseReceived {
		t.Error("OnResponse callback not invoked")
	}
	if !toolCalled {
		t.Error("OnToolCall callback not invoked")
	}
	if !errorReceived {
		t.Error("OnError callback not invoked")
	}
}

// fakePipeline records callbacks for Callbacks.Apply tests.
type fakePipeline struct {
	onAudioOut    func(audio []byte)
	onSpeechStart func()
	onSpeechEnd   func()
	onTranscript  func(text string, isFinal bool)
	onResponse    func(text string, isFinal bool)
	onToolCall    func(call ToolCall)
	onError       func(err error)
}

func (f *fakePipeline) Start(ctx context.Context) error                { return nil }
func (f *fakePipeline) Stop() error                                    { return nil }
func (f *fakePipeline) IsConnected() bool                              { return false }
func (f *fakePipeline) SendAudio(audio []byte) error                   { return nil }
func (f *fakePipeline) OnAudioOut(fn func(audio []byte))               { f.onAudioOut = fn }
func (f *fakePipeline) OnSpeechStart(fn func())                        { f.onSpeechStart = fn }
func (f *fakePipeline) OnSpeechEnd(fn func())                          { f.onSpeechEnd = fn }
func (f *fakePipeline) OnTranscript(fn func(text string, isFinal bool)) {
	f.onTranscript = fn
}
func (f *fakePipeline) OnResponse(fn func(text string, isFinal bool)) { f.onResponse = fn }
func (f *fakePipeline) OnToolCall(fn func(call ToolCall))             { f.onToolCall = fn }
func (f *fakePipeline) OnError(fn func(err error))                    { f.onError = fn }
func (f *fakePipeline) RegisterTool(tool Tool)                        {}
func (f *fakePipeline) SubmitToolResult(callID, result string) error  { return nil }
func (f *fakePipeline) Prompt(instructions string) error              { return nil }
func (f *fakePipeline) Interrupt() error                              { return nil }
func (f *fakePipeline) Metrics() Metrics                              { return Metrics{} }
func (f *fakePipeline) Config() Config                                { return Config{} }
