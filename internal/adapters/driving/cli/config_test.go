package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigShowDefaults(t *testing.T) {
	setupTestServices(t)

	output, err := executeCommand(t, "config")
	require.NoError(t, err)
	assert.Contains(t, output, "[Embedding]")
	assert.Contains(t, output, "Status: not configured")
	assert.Contains(t, output, "Chunk tokens: 800")
	assert.Contains(t, output, "Tool budget: 8")
}

func TestConfigEmbeddingOllama(t *testing.T) {
	setupTestServices(t)
	configModel = ""
	configAPIKey = ""

	output, err := executeCommand(t, "config", "embedding", "ollama")
	require.NoError(t, err)
	assert.Contains(t, output, "Ollama (local)")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.True(t, settings.Embedding.IsConfigured())
}

func TestConfigEmbeddingInvalidProvider(t *testing.T) {
	setupTestServices(t)
	configModel = ""
	configAPIKey = ""

	_, err := executeCommand(t, "config", "embedding", "mystery")
	require.Error(t, err)
}

func TestConfigLLMWithKeyFlag(t *testing.T) {
	setupTestServices(t)
	configModel = ""
	configAPIKey = ""

	output, err := executeCommand(t, "config", "llm", "anthropic", "--api-key", "sk-ant-test-key")
	require.NoError(t, err)
	assert.Contains(t, output, "Anthropic (cloud)")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.True(t, settings.LLM.IsConfigured())
}

func TestConfigBudget(t *testing.T) {
	setupTestServices(t)

	output, err := executeCommand(t, "config", "budget", "12")
	require.NoError(t, err)
	assert.Contains(t, output, "Tool budget set to 12")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, 12, settings.ToolBudget)

	_, err = executeCommand(t, "config", "budget", "oops")
	require.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	setupTestServices(t)

	output, err := executeCommand(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, output, "config.toml")
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-a...-key", maskAPIKey("sk-ant-test-key"))
}
