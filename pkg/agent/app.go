// Package agent wires inbound calls to the voice pipeline and relays the
// pipeline's tool invocations to the business webhook.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storline-ai/storline/internal/log"
	"github.com/storline-ai/storline/pkg/audio"
	"github.com/storline-ai/storline/pkg/telephony"
	"github.com/storline-ai/storline/pkg/voice"
	_ "github.com/storline-ai/storline/pkg/voice/bundled" // Register voice providers
	"github.com/storline-ai/storline/pkg/webhook"
)

// MediaStreamPath is the WebSocket endpoint the platform connects to.
const MediaStreamPath = "/media-stream"

// startWait bounds how long a fresh connection may go without a start event.
const startWait = 10 * time.Second

// Config holds the worker configuration.
type Config struct {
	Port       int
	Version    string
	WebhookURL string
	OpenAIKey  string

	Language   string // Built-in script language ("en", "fr")
	ScriptPath string // Optional YAML script override
	Voice      string // TTS voice override

	WebhookTimeout time.Duration
	Debug          bool
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return errors.New("agent: webhook URL is required")
	}
	if c.OpenAIKey == "" {
		return errors.New("agent: OpenAI API key is required")
	}
	return nil
}

// App is the call worker orchestrator. It owns the HTTP server, the
// telephony hub, and the per-call bootstrap.
type App struct {
	config  Config
	script  Script
	webhook *webhook.Client
	hub     *telephony.Hub
	server  *fiber.App

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a worker with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.WebhookTimeout == 0 {
		cfg.WebhookTimeout = webhook.DefaultTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Init initializes all components. Call after New() and before Run().
func (a *App) Init() error {
	var err error
	if a.config.ScriptPath != "" {
		a.script, err = Load(a.config.ScriptPath)
	} else {
		a.script, err = Builtin(a.config.Language)
	}
	if err != nil {
		return fmt.Errorf("agent: script init: %w", err)
	}

	a.webhook = webhook.NewWithTimeout(a.config.WebhookURL, a.config.WebhookTimeout)

	a.hub = telephony.NewHub()
	a.hub.OnCall(a.handleCall)

	a.server = fiber.New(fiber.Config{
		AppName:               "storline",
		DisableStartupMessage: true,
	})
	a.server.Use(recover.New())
	a.server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	a.hub.RegisterRoutes(a.server, MediaStreamPath)

	a.server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": a.config.Version,
			"calls":   a.hub.CallCount(),
		})
	})

	a.server.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})))

	return nil
}

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run() error {
	addr := fmt.Sprintf(":%d", a.config.Port)
	log.Info("worker listening",
		"addr", addr,
		"mediaStream", MediaStreamPath,
		"language", a.script.Language)
	return a.server.Listen(addr)
}

// Shutdown stops accepting connections, ends active calls, and drains the
// server within the context deadline.
func (a *App) Shutdown(ctx context.Context) error {
	a.cancel()
	a.hub.Shutdown()
	return a.server.ShutdownWithContext(ctx)
}

// Hub exposes the telephony hub, mainly for health reporting.
func (a *App) Hub() *telephony.Hub {
	return a.hub
}

// handleCall runs the lifetime of one call: wait for call metadata, seed
// the session, start a voice pipeline with the tools attached, bridge
// audio both ways, and greet the caller.
func (a *App) handleCall(call *telephony.Call) {
	callsTotal.Inc()
	callsActive.Inc()
	began := time.Now()
	defer func() {
		callsActive.Dec()
		callDuration.Observe(time.Since(began).Seconds())
	}()

	logger := log.Call(call.ID)

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	startCtx, cancelStart := context.WithTimeout(ctx, startWait)
	start, err := call.WaitForStart(startCtx)
	cancelStart()
	if err != nil {
		logger.Warn("no start event, dropping connection", "error", err)
		call.Close()
		return
	}

	session := NewSession()
	if phone := start.PhoneNumber(); phone != "" {
		session.SetPhoneNumber(phone)
		logger.Info("caller identified", "phone", phone)
	} else {
		logger.Info("call metadata has no caller number")
	}

	streamFormat := audio.Telephony
	if enc, err := audio.ParseEncoding(start.MediaFormat.Encoding); err == nil {
		streamFormat.Encoding = enc
		if start.MediaFormat.SampleRate > 0 {
			streamFormat.SampleRate = start.MediaFormat.SampleRate
		}
	} else if start.MediaFormat.Encoding != "" {
		logger.Warn("unknown stream encoding, assuming mulaw",
			"encoding", start.MediaFormat.Encoding)
	}

	voiceCfg := voice.DefaultConfig().
		WithSystemPrompt(a.script.Instructions()).
		WithDebug(a.config.Debug)
	voiceCfg.OpenAIKey = a.config.OpenAIKey
	if a.config.Voice != "" {
		voiceCfg.Voice = a.config.Voice
	}

	pipeline, err := voice.New(voiceCfg)
	if err != nil {
		logger.Error("voice pipeline create failed", "error", err)
		call.Close()
		return
	}

	for _, tool := range Tools(ToolDeps{Webhook: a.webhook, Session: session, Ctx: ctx}) {
		pipeline.RegisterTool(tool)
	}

	inFormat := pipelineFormat(voiceCfg.InputFormat)
	outFormat := pipelineFormat(voiceCfg.OutputFormat)

	cb := voice.Callbacks{
		OnAudioOut: func(chunk []byte) {
			data, err := audio.Transcode(chunk, outFormat, streamFormat)
			if err != nil {
				logger.Warn("outbound transcode failed", "error", err)
				return
			}
			call.SendAudio(data)
		},
		OnSpeechStart: func() {
			// Caller barged in: flush queued playback on the platform side
			call.SendClear()
		},
		OnTranscript: func(text string, isFinal bool) {
			if isFinal {
				logger.Debug("caller said", "text", text)
			}
		},
		OnResponse: func(text string, isFinal bool) {
			if isFinal {
				logger.Debug("agent said", "text", text)
			}
		},
		OnToolCall: func(tc voice.ToolCall) {
			logger.Info("tool invoked", "tool", tc.Name)
		},
		OnError: func(err error) {
			logger.Error("pipeline error", "error", err)
		},
	}
	cb.Apply(pipeline)

	call.OnMedia(func(chunk []byte) {
		data, err := audio.Transcode(chunk, streamFormat, inFormat)
		if err != nil {
			logger.Warn("inbound transcode failed", "error", err)
			return
		}
		pipeline.SendAudio(data)
	})
	call.OnStop(func(reason string) {
		cancel()
	})

	if err := pipeline.Start(ctx); err != nil {
		logger.Error("voice pipeline start failed", "error", err)
		call.Close()
		return
	}
	defer pipeline.Stop()

	if err := pipeline.Prompt(a.script.Greeting); err != nil {
		logger.Warn("greeting failed", "error", err)
	}

	select {
	case <-call.Done():
	case <-ctx.Done():
	}
	call.Close()
	logger.Info("call finished", "duration", time.Since(began).Round(time.Second))
}

// pipelineFormat maps a pipeline audio format to its byte-level format.
func pipelineFormat(f voice.AudioFormat) audio.Format {
	switch f {
	case voice.FormatPCM16:
		return audio.PipelinePCM
	case voice.FormatG711Alaw:
		return audio.Format{Encoding: audio.Alaw, SampleRate: 8000}
	default:
		return audio.PipelineG711
	}
}
