// Package prompt holds reusable prompt templates with {variable} placeholders.
package prompt

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

// ErrMissingVariable is returned when Format is called without a declared variable.
var ErrMissingVariable = errors.New("missing prompt variable")

// Template is a prompt with named {placeholders}. Literal braces are written
// doubled, as in "{{" and "}}".
type Template struct {
	vars []string
	tmpl prompts.PromptTemplate
}

// New creates a template over text declaring the variables it expects.
func New(text string, vars ...string) Template {
	return Template{vars: vars, tmpl: prompts.NewPromptTemplate(text, vars)}
}

// Variables returns the declared variable names.
func (t Template) Variables() []string {
	return append([]string(nil), t.vars...)
}

// Format renders the template with values.
func (t Template) Format(values map[string]any) (string, error) {
	for _, v := range t.vars {
		if _, ok := values[v]; !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingVariable, v)
		}
	}
	out, err := t.tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}
	return out, nil
}

// MustFormat is Format for templates whose values are known to be complete.
func (t Template) MustFormat(values map[string]any) string {
	out, err := t.Format(values)
	if err != nil {
		panic(err)
	}
	return out
}
