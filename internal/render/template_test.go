package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	out, err := Substitute("a {x} b {{c}} {y}{x}", map[string]string{"x": "1", "y": "2", "unused": "3"})
	require.NoError(t, err)
	assert.Equal(t, "a 1 b {c} 21", out)
}

func TestSubstituteValueNotReinterpreted(t *testing.T) {
	out, err := Substitute("{events}", map[string]string{"events": "{day} }}"})
	require.NoError(t, err)
	assert.Equal(t, "{day} }}", out)
}

func TestSubstituteErrors(t *testing.T) {
	for _, tpl := range []string{"{missing}", "open {x", "lone } brace"} {
		_, err := Substitute(tpl, map[string]string{"x": "1"})
		assert.ErrorIs(t, err, ErrConfiguration, tpl)
	}
}
