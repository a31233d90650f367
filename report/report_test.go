package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out := string(Render("## Trends\n\n- **agents**\n- [docs](https://example.com)\n"))

	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "Trends</h2>")
	assert.Contains(t, out, "<strong>agents</strong>")
	assert.Contains(t, out, `href="https://example.com"`)
}

func TestRender_Sanitizes(t *testing.T) {
	out := string(Render("hello <script>alert(1)</script>"))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteFile(path, "AI <Trends>", "# Summary\n\ntext"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>AI &lt;Trends&gt;</title>")
	assert.Contains(t, string(data), "<p>text</p>")
}
