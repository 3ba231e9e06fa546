package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storline-ai/storline/pkg/audio"
	"github.com/storline-ai/storline/pkg/voice"
)

func TestConfigValidate(t *testing.T) {
	cfg := Config{WebhookURL: "https://example.com/webhook", OpenAIKey: "sk-test"}
	assert.NoError(t, cfg.Validate())

	missing := cfg
	missing.WebhookURL = ""
	assert.Error(t, missing.Validate())

	missing = cfg
	missing.OpenAIKey = ""
	assert.Error(t, missing.Validate())
}

func TestNewAppliesDefaults(t *testing.T) {
	app, err := New(Config{
		WebhookURL: "https://example.com/webhook",
		OpenAIKey:  "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, 8080, app.config.Port)
	assert.NotZero(t, app.config.WebhookTimeout)
}

func TestInitLoadsScript(t *testing.T) {
	app, err := New(Config{
		WebhookURL: "https://example.com/webhook",
		OpenAIKey:  "sk-test",
		Language:   "fr",
	})
	require.NoError(t, err)
	require.NoError(t, app.Init())
	assert.True(t, app.script.CollectConsent)
	assert.NotNil(t, app.Hub())
}

func TestPipelineFormat(t *testing.T) {
	assert.Equal(t, audio.PipelinePCM, pipelineFormat(voice.FormatPCM16))
	assert.Equal(t, audio.PipelineG711, pipelineFormat(voice.FormatG711Ulaw))
	assert.Equal(t, audio.Alaw, pipelineFormat(voice.FormatG711Alaw).Encoding)
}
