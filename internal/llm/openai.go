package llm

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/SRdeMora/quimera/internal/types"
)

// OpenAIProvider implements Provider for OpenAI chat models.
type OpenAIProvider struct {
	client *openai.LLM
	config Config
}

// NewOpenAIProvider creates an OpenAI-backed generation provider.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	cfg.ApplyDefaults()

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, types.NewError(types.ErrCodeProviderAuthFailed,
			"OpenAI provider requires api_key (or OPENAI_API_KEY environment variable)")
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeProviderUnavailable,
			"failed to create OpenAI client", err)
	}

	return &OpenAIProvider{client: client, config: cfg}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model exposes the underlying langchaingo model for callers that run their
// own prompts against it, such as the classifier ensemble.
func (p *OpenAIProvider) Model() llms.Model {
	return p.client
}

// Complete sends a chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	messages := toContentMessages(req)

	callOpts := []llms.CallOption{
		llms.WithTemperature(orDefault(req.Temperature, p.config.Temperature)),
		llms.WithMaxTokens(orDefaultInt(req.MaxTokens, p.config.MaxTokens)),
	}
	if req.Model != "" {
		callOpts = append(callOpts, llms.WithModel(req.Model))
	}

	resp, err := p.client.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeProviderCallFailed,
			"OpenAI completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, types.NewError(types.ErrCodeProviderCallFailed,
			"OpenAI returned no completion choices")
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	return &CompletionResponse{
		Content: resp.Choices[0].Content,
		Model:   model,
	}, nil
}

// Health probes the API with a minimal completion.
func (p *OpenAIProvider) Health(ctx context.Context) types.HealthStatus {
	_, err := llms.GenerateFromSinglePrompt(ctx, p.client, "ping",
		llms.WithMaxTokens(1))
	if err != nil {
		return types.Unhealthy("OpenAI API unreachable: " + err.Error())
	}
	return types.Healthy("OpenAI provider operational")
}

// toContentMessages converts a CompletionRequest to langchaingo messages,
// prepending the system prompt when present.
func toContentMessages(req CompletionRequest) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages,
			llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, msg := range req.Messages {
		messages = append(messages,
			llms.TextParts(toChatMessageType(msg.Role), msg.Content))
	}
	return messages
}

func toChatMessageType(role MessageRole) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func orDefault(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
