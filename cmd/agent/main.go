// agent: call worker for the storline voice assistant.
// Accepts media-stream WebSocket connections from the telephony platform,
// runs each call through a hosted voice pipeline, and relays tool calls
// to the business webhook.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/storline-ai/storline/internal/config"
	"github.com/storline-ai/storline/internal/log"
	"github.com/storline-ai/storline/pkg/agent"
)

var (
	version  = "1.0.0"
	port     = flag.Int("port", config.DefaultPort, "HTTP server port")
	language = flag.String("language", config.DefaultLanguage, "Built-in script language (en, fr)")
	script   = flag.String("script", "", "Path to a YAML script override")
	voiceID  = flag.String("voice", "", "TTS voice override")
	debug    = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	// Local development secrets; absence is fine in production
	godotenv.Load(".env.local")

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	cfg := agent.Config{
		Port:           config.EnvInt("PORT", *port),
		Version:        version,
		WebhookURL:     config.EnvRequired("WEBHOOK_URL"),
		OpenAIKey:      config.EnvRequired("OPENAI_API_KEY"),
		Language:       config.Env("SCRIPT_LANGUAGE", *language),
		ScriptPath:     config.Env("SCRIPT_PATH", *script),
		Voice:          config.Env("VOICE", *voiceID),
		WebhookTimeout: config.EnvDuration("WEBHOOK_TIMEOUT", config.DefaultWebhookTimeout),
		Debug:          *debug,
	}

	app, err := agent.New(cfg)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		log.Error("init failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := app.Run(); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	fmt.Printf("storline agent v%s listening on :%d\n", version, cfg.Port)
	fmt.Printf("  media stream: ws://localhost:%d%s\n", cfg.Port, agent.MediaStreamPath)
	fmt.Printf("  health:       http://localhost:%d/health\n", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
