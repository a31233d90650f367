// Package report turns Markdown produced by a workflow into a standalone,
// sanitized HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>body{font-family:sans-serif;max-width:46rem;margin:2rem auto;line-height:1.5}</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{.Body}}
</body>
</html>
`))

// Render converts Markdown to sanitized HTML.
func Render(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	out := markdown.Render(doc, renderer)

	return bluemonday.UGCPolicy().SanitizeBytes(out)
}

// HTML renders md as a full page titled title.
func HTML(title, md string) (string, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(Render(md)), // #nosec G203 sanitized by Render
	})
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// WriteFile writes the page for md to path.
func WriteFile(path, title, md string) error {
	out, err := HTML(title, md)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
