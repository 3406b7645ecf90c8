package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaude(t *testing.T) {
	c := NewCalculator(DefaultRates())

	// 1M input + 1M output on Sonnet.
	assert.InDelta(t, 18.0, c.Claude("claude-sonnet-4-5-20250929", 1_000_000, 1_000_000, 0, 0), 1e-9)

	// Cache write at 1.25x input, cache read at 0.1x input.
	assert.InDelta(t, 3.75, c.Claude("claude-sonnet-4-5-20250929", 0, 0, 1_000_000, 0), 1e-9)
	assert.InDelta(t, 0.30, c.Claude("claude-sonnet-4-5-20250929", 0, 0, 0, 1_000_000), 1e-9)
}

func TestClaude_UnknownModel(t *testing.T) {
	c := NewCalculator(DefaultRates())
	assert.Zero(t, c.Claude("gpt-4", 1000, 1000, 0, 0))
}

func TestClaude_CustomRates(t *testing.T) {
	c := NewCalculator(Rates{Anthropic: map[string]ModelRate{"m": {Input: 2, Output: 4}}})
	assert.InDelta(t, 0.006, c.Claude("m", 1000, 1000, 0, 0), 1e-12)
}
