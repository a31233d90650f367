// Package tool defines locally executed functions a chat model can request,
// their JSON schema conversion, and an executor that answers tool calls.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrUnknownTool is returned when a call names a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments is returned when tool call arguments do not decode.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Tool is a function the model may call by name.
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON schema object describing the arguments.
	Parameters() map[string]any
	// Call runs the tool with the JSON encoded arguments chosen by the model.
	Call(ctx context.Context, arguments string) (string, error)
}

// Handler runs a tool with raw JSON arguments.
type Handler func(ctx context.Context, arguments string) (string, error)

// Func is a Tool built from plain values.
type Func struct {
	name        string
	description string
	parameters  map[string]any
	handler     Handler
}

var _ Tool = (*Func)(nil)

// NewFunc creates a tool from a handler taking raw JSON arguments.
func NewFunc(name, description string, parameters map[string]any, handler Handler) *Func {
	return &Func{name: name, description: description, parameters: parameters, handler: handler}
}

// Typed creates a tool whose arguments are decoded into A before fn runs.
func Typed[A any](name, description string, parameters map[string]any, fn func(ctx context.Context, args A) (string, error)) *Func {
	return NewFunc(name, description, parameters, func(ctx context.Context, arguments string) (string, error) {
		var args A
		if arguments != "" {
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("%w for %s: %v", ErrInvalidArguments, name, err)
			}
		}
		return fn(ctx, args)
	})
}

func (f *Func) Name() string               { return f.name }
func (f *Func) Description() string        { return f.description }
func (f *Func) Parameters() map[string]any { return f.parameters }

func (f *Func) Call(ctx context.Context, arguments string) (string, error) {
	return f.handler(ctx, arguments)
}

// Object builds a JSON schema object from property schemas and required names.
func Object(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Property builds a single property schema.
func Property(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// Definitions converts tools into the function definitions sent to the model.
func Definitions(tools []Tool) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}

// Schema returns the document a model sees for t.
func Schema(t Tool) map[string]any {
	return map[string]any{
		"name":        t.Name(),
		"description": t.Description(),
		"parameters":  t.Parameters(),
	}
}
