package brief

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrief(t *testing.T) {
	req, err := ParseBrief(`
brief:
  prompt: "  Minimalist logo for a coffee shop "
  kind: image
  style: flat
  requirements:
    palette: [brown, cream]
    budget: 50
`)
	require.NoError(t, err)

	assert.Equal(t, "Minimalist logo for a coffee shop", req.Prompt)
	assert.Equal(t, "image", req.Requirements["kind"])
	assert.Equal(t, "flat", req.Requirements["style"])
	assert.Equal(t, []interface{}{"brown", "cream"}, req.Requirements["palette"])
	assert.Equal(t, 50, req.Requirements["budget"])
	assert.NotContains(t, req.Requirements, "audience")
}

func TestParseBriefPromptOnly(t *testing.T) {
	req, err := ParseBrief("brief:\n  prompt: Landing page for a bakery\n")
	require.NoError(t, err)
	assert.Equal(t, "Landing page for a bakery", req.Prompt)
	assert.Nil(t, req.Requirements)
}

func TestParseBriefErrors(t *testing.T) {
	_, err := ParseBrief("brief: [")
	assert.Error(t, err)

	_, err = ParseBrief("brief:\n  prompt: ''\n")
	assert.Error(t, err)

	_, err = ParseBrief("brief:\n  prompt: x\n  kind: video\n")
	assert.Error(t, err)
}
