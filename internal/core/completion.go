package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/store"
)

// CompletionRequest is one chat-completion call: a system instruction, the
// prior turns oldest-first and the new user message.
type CompletionRequest struct {
	System  string
	History []store.Turn
	Message string
}

// CompletionClient sends exactly one request per call and never retries.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GatewayCompletion talks to an OpenAI-compatible /chat/completions endpoint.
type GatewayCompletion struct {
	url        string
	apiKey     string
	opts       CompletionOptions
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGatewayCompletion uses http.DefaultClient when httpClient is nil, so no
// timeout is imposed beyond the transport defaults.
func NewGatewayCompletion(url, apiKey string, opts CompletionOptions, httpClient *http.Client, logger *zap.Logger) *GatewayCompletion {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GatewayCompletion{
		url:        url,
		apiKey:     apiKey,
		opts:       opts,
		httpClient: httpClient,
		logger:     logger,
	}
}

// buildMessages lays out the wire messages as [system, ...history, user].
func buildMessages(req CompletionRequest) []chatMessage {
	messages := make([]chatMessage, 0, len(req.History)+2)
	messages = append(messages, chatMessage{Role: "system", Content: req.System})
	for _, turn := range req.History {
		messages = append(messages, chatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: string(store.RoleUser), Content: req.Message})
	return messages
}

func (g *GatewayCompletion) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       g.opts.Model,
		Messages:    buildMessages(req),
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Error("AI API error", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("malformed completion payload: %w", err)}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("completion payload has no message content")}
	}

	return *parsed.Choices[0].Message.Content, nil
}
