package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicDataPrompt(t *testing.T) {
	prompt := PublicDataPrompt("Alice", "9876543210")
	assert.Contains(t, prompt, "Alice")
	assert.Contains(t, prompt, "9876543210")
	assert.Contains(t, prompt, "JSON")
}

func TestPreferenceCreatePromptEmbedsJSON(t *testing.T) {
	prompt, err := PreferenceCreatePrompt(map[string]any{"cuisine": "hyderabadi"})
	require.NoError(t, err)
	assert.Contains(t, prompt, `"cuisine": "hyderabadi"`)
}

func TestPreferenceQueryPromptDefaults(t *testing.T) {
	prompt := PreferenceQueryPrompt("9876543210", "", "")
	assert.Contains(t, prompt, DefaultEventSummary)
	assert.Contains(t, prompt, DefaultEventLocation)

	prompt = PreferenceQueryPrompt("9876543210", "birthday", "Mumbai")
	assert.Contains(t, prompt, "birthday")
	assert.Contains(t, prompt, "Mumbai")
	assert.NotContains(t, prompt, DefaultEventLocation)
}

func TestGiftPromptEmbedsContext(t *testing.T) {
	events := []map[string]any{{"summary": "Anniversary"}}
	profile := map[string]any{"full_name": "Alice"}
	family := []map[string]any{{"name": "Bob"}}

	prompt, err := GiftPrompt(events, profile, family)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Anniversary")
	assert.Contains(t, prompt, "Alice")
	assert.Contains(t, prompt, "Bob")
}

func TestEstimateTokensNonZero(t *testing.T) {
	assert.Positive(t, EstimateTokens("hello world, this is a prompt"))
	assert.Zero(t, EstimateTokens(""))
}
