// Package llm builds the chat model clients used by the workflows and offers
// small helpers around a single model call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/message"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrEmptyResponse is returned when the model answers without any choice.
	ErrEmptyResponse = errors.New("model returned no choices")

	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown model provider")
)

// New creates the chat model selected by cfg. Temperature, model name and
// request timeout from cfg are applied to every call.
func New(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	var (
		model llms.Model
		err   error
	)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case config.ProviderOpenAINative:
		model = NewGoOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case config.ProviderGoogleAI:
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Provider, err)
	}

	return WithDefaults(model, cfg.Timeout, llms.WithTemperature(cfg.Temperature)), nil
}

// defaultsModel prepends fixed call options to every request.
type defaultsModel struct {
	model   llms.Model
	opts    []llms.CallOption
	timeout time.Duration
}

// WithDefaults wraps model so that opts are applied before the per-call
// options of every request, and each request is bounded by timeout when it
// is positive.
func WithDefaults(model llms.Model, timeout time.Duration, opts ...llms.CallOption) llms.Model {
	return &defaultsModel{model: model, opts: opts, timeout: timeout}
}

func (d *defaultsModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	all := make([]llms.CallOption, 0, len(d.opts)+len(options))
	all = append(all, d.opts...)
	all = append(all, options...)
	return d.model.GenerateContent(ctx, messages, all...)
}

func (d *defaultsModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, d, prompt, options...)
}

// Complete sends msgs to model and returns the first choice as an AI message.
func Complete(ctx context.Context, model llms.Model, msgs []message.Message, opts ...llms.CallOption) (message.Message, error) {
	resp, err := model.GenerateContent(ctx, message.ToLLM(msgs), opts...)
	if err != nil {
		return message.Message{}, err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return message.Message{}, ErrEmptyResponse
	}
	return message.FromChoice(resp.Choices[0]), nil
}

// Ask sends a single human prompt and returns the answer text.
func Ask(ctx context.Context, model llms.Model, prompt string, opts ...llms.CallOption) (string, error) {
	reply, err := Complete(ctx, model, []message.Message{message.Human(prompt)}, opts...)
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}
