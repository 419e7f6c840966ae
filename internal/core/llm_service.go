package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"finassist.com/finance-chatbot/internal/config"
	"finassist.com/finance-chatbot/internal/store"
)

// GeminiCompletion calls Gemini directly instead of going through the gateway.
type GeminiCompletion struct {
	client *genai.Client
	opts   CompletionOptions
	logger *zap.Logger
}

func NewGeminiCompletion(ctx context.Context, apiKey string, opts CompletionOptions, logger *zap.Logger) (*GeminiCompletion, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiCompletion{client: client, opts: opts, logger: logger}, nil
}

func (g *GeminiCompletion) Close() error {
	if g.client == nil {
		return nil
	}
	if err := g.client.Close(); err != nil {
		return fmt.Errorf("error closing GenAI client: %w", err)
	}
	g.logger.Info("GenAI client closed")
	return nil
}

// geminiModelName strips the gateway's vendor prefix ("google/gemini-2.5-flash").
func geminiModelName(model string) string {
	return strings.TrimPrefix(model, "google/")
}

// geminiRole maps stored roles onto the two roles Gemini accepts.
func geminiRole(role store.Role) string {
	if role == store.RoleAssistant {
		return "model"
	}
	return "user"
}

func (g *GeminiCompletion) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := g.client.GenerativeModel(geminiModelName(g.opts.Model))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}
	model.SetTemperature(g.opts.Temperature)
	model.SetMaxOutputTokens(int32(g.opts.MaxTokens))

	chatSession := model.StartChat()
	for _, turn := range req.History {
		chatSession.History = append(chatSession.History, &genai.Content{
			Role:  geminiRole(turn.Role),
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := chatSession.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return "", &UpstreamError{Err: fmt.Errorf("gemini chat SendMessage failed: %w", err)}
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &UpstreamError{Err: fmt.Errorf("gemini response was empty or had no valid candidates")}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			g.logger.Debug("gemini response part was not text", zap.String("type", fmt.Sprintf("%T", part)))
		}
	}

	if responseText.Len() == 0 {
		return "", &UpstreamError{Err: fmt.Errorf("gemini response had no text parts")}
	}
	return responseText.String(), nil
}

// NewCompletionClient builds the provider selected in cfg, wrapped in a
// circuit breaker when enabled. The returned close func releases provider
// resources and is never nil.
func NewCompletionClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (CompletionClient, func() error, error) {
	opts := CompletionOptions{
		Model:       cfg.CompletionModel,
		Temperature: cfg.CompletionTemperature,
		MaxTokens:   cfg.CompletionMaxTokens,
	}

	var (
		client  CompletionClient
		closeFn = func() error { return nil }
	)
	switch cfg.CompletionProvider {
	case config.ProviderGemini:
		gemini, err := NewGeminiCompletion(ctx, cfg.GeminiAPIKey, opts, logger)
		if err != nil {
			return nil, nil, err
		}
		client, closeFn = gemini, gemini.Close
	case config.ProviderGateway:
		client = NewGatewayCompletion(cfg.CompletionURL, cfg.CompletionAPIKey, opts, nil, logger)
	default:
		return nil, nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}

	if cfg.CompletionBreaker {
		client = NewBreakerCompletion(client, DefaultBreakerSettings("completion"), logger)
	}
	return client, closeFn, nil
}
