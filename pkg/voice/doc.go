// Package voice provides a unified interface for hosted conversational
// speech pipelines.
//
// The package abstracts speech-to-speech providers behind a common Pipeline
// interface. A pipeline owns the hard parts of a phone conversation (VAD,
// turn detection, transcription, reasoning and synthesis) while the caller
// supplies audio, a system script, and a set of tools the reasoning model
// may invoke mid-conversation.
//
// # Usage
//
// Create a pipeline with a configuration, register tools, wire callbacks,
// then start it:
//
//	cfg := voice.DefaultConfig().
//	    WithSystemPrompt(script).
//	    WithAudioFormat(voice.FormatG711Ulaw)
//	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
//
//	pipeline, err := voice.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pipeline.RegisterTool(voice.Tool{
//	    Name:        "check_availability",
//	    Description: "Checks storage unit availability",
//	    Handler: func(args map[string]any) (string, error) {
//	        return "available", nil
//	    },
//	})
//
//	pipeline.OnAudioOut(func(audio []byte) {
//	    call.SendAudio(audio)
//	})
//
//	if err := pipeline.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pipeline.Stop()
//
// Registered tools are dispatched by the pipeline itself: when the model
// invokes one, the handler runs and its result is submitted back so the
// model can phrase a spoken reply. Handlers must return a message rather
// than fail hard; an error is surfaced to the model as text so the
// conversation survives.
package voice
