package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// defaultTemperature matches the support assistant's tuned sampling.
const defaultTemperature = 0.7

// OpenRouterOpts configures an OpenRouter-backed Client.
type OpenRouterOpts struct {
	APIKey  string
	BaseURL string // OpenAI-compatible endpoint, e.g. https://openrouter.ai/api/v1
	Referer string // sent as HTTP-Referer, used by OpenRouter for app rankings
	Title   string // sent as X-Title
}

// OpenRouter completes chats against any OpenAI-compatible endpoint.
type OpenRouter struct {
	client openai.Client
}

// NewOpenRouter validates opts and returns a ready Client.
func NewOpenRouter(opts OpenRouterOpts) (*OpenRouter, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gateway: api key is required")
	}

	ropts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		ropts = append(ropts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Referer != "" {
		ropts = append(ropts, option.WithHeader("HTTP-Referer", opts.Referer))
	}
	if opts.Title != "" {
		ropts = append(ropts, option.WithHeader("X-Title", opts.Title))
	}

	return &OpenRouter{client: openai.NewClient(ropts...)}, nil
}

// Complete runs one chat completion against req.Model. Provider 429s come
// back as *RateLimitError so the caller can apply its retry policy.
func (o *OpenRouter) Complete(ctx context.Context, req Request) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    buildMessages(req),
		Temperature: openai.Float(defaultTemperature),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
			return nil, &RateLimitError{Model: req.Model, Err: err}
		}
		return nil, fmt.Errorf("gateway: complete with %s: %w", req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("gateway: complete with %s: empty response", req.Model)
	}

	msg := resp.Choices[0].Message
	comp := &Completion{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		comp.ToolCalls = append(comp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return comp, nil
}

// buildMessages converts a Request into the wire message list. The system
// prompt always leads; assistant turns keep their tool calls and tool turns
// keep the call ID they answer, so mid-protocol history replays cleanly.
func buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case RoleAssistant:
			assistant := &openai.ChatCompletionAssistantMessageParam{}
			if turn.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(turn.Content),
				}
			}
			for _, tc := range turn.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case RoleTool:
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					ToolCallID: turn.ToolCallID,
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(turn.Content),
					},
				},
			})
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	return messages
}

func buildTools(specs []ToolSpec) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, len(specs))
	for i, s := range specs {
		tools[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        s.Name,
				Description: openai.String(s.Description),
				Parameters:  openai.FunctionParameters(s.Parameters),
			},
		}
	}
	return tools
}
