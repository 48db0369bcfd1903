package notification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	vars := map[string]string{
		"recipient_name":   "Maria",
		"valuation_number": "VAL-000042",
		"current_state":    "APPROVED",
	}

	out, err := render("Hello {{recipient_name}}, {{ valuation_number }} is now {{current_state}}.", vars, defaultMaxLength)
	require.NoError(t, err)
	assert.Equal(t, "Hello Maria, VAL-000042 is now APPROVED.", out)
}

func TestRenderRepeatedPlaceholder(t *testing.T) {
	out, err := render("{{name}} {{name}}", map[string]string{"name": "x"}, defaultMaxLength)
	require.NoError(t, err)
	assert.Equal(t, "x x", out)
}

func TestRenderMissingVariables(t *testing.T) {
	_, err := render("{{known}} and {{unknown_b}} and {{unknown_a}}", map[string]string{"known": "v"}, defaultMaxLength)
	require.Error(t, err)

	var missing *ErrMissingVariables
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"unknown_a", "unknown_b"}, missing.Keys)
}

func TestRenderTruncates(t *testing.T) {
	long := strings.Repeat("a", 2000)

	out, err := render("{{body}}", map[string]string{"body": long}, defaultMaxLength)
	require.NoError(t, err)

	assert.Len(t, []rune(out), defaultMaxLength)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestRenderExactLimitUntouched(t *testing.T) {
	exact := strings.Repeat("b", defaultMaxLength)

	out, err := render(exact, nil, defaultMaxLength)
	require.NoError(t, err)
	assert.Equal(t, exact, out)
}

func TestRenderCustomLimit(t *testing.T) {
	out, err := render(strings.Repeat("c", 100), nil, 60)
	require.NoError(t, err)

	assert.Len(t, []rune(out), 60)
	assert.True(t, strings.HasSuffix(out, "..."))
}
