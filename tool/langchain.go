package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/tools"
)

// FromLangchain exposes a langchaingo tool, which takes one free-form string,
// as a Tool with a single "input" argument.
func FromLangchain(t tools.Tool) Tool {
	return NewFunc(t.Name(), t.Description(),
		Object(map[string]any{
			"input": Property("string", "The input to the tool"),
		}, "input"),
		func(ctx context.Context, arguments string) (string, error) {
			var args struct {
				Input string `json:"input"`
			}
			if err := decodeArgs(arguments, &args); err != nil {
				return "", err
			}
			return t.Call(ctx, args.Input)
		})
}

func decodeArgs(arguments string, v any) error {
	if arguments == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
