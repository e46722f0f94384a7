package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_ToHTML(t *testing.T) {
	r := NewRenderer()

	out, err := r.ToHTML("**Key:** `LG-ABC`\nExpires in 3 days")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Key:</strong>")
	assert.Contains(t, out, "<code>LG-ABC</code>")
	assert.Contains(t, out, "<br/>")
}

func TestRenderer_Sanitizes(t *testing.T) {
	r := NewRenderer()

	out, err := r.ToHTML("hello <script>alert(1)</script> [x](javascript:alert(1))")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestRenderer_Linkify(t *testing.T) {
	out, err := NewRenderer().ToHTML("see https://example.com/docs")
	require.NoError(t, err)
	assert.Contains(t, out, `href="https://example.com/docs"`)
	assert.Contains(t, out, `rel="nofollow"`)
}
