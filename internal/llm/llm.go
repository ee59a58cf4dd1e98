package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pavelanni/quizgen/internal/document"
	"github.com/pavelanni/quizgen/internal/generate"
	"github.com/pavelanni/quizgen/internal/llm/prompts"
	"github.com/pavelanni/quizgen/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client and implements
// generate.Generator.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

var _ generate.Generator = (*Client)(nil)

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) (*Client, error) {
	if err := prompts.Load(nil); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: 0.7,
	}, nil
}

// Ping checks that the endpoint is reachable and the API key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// generatedQuiz is the JSON object the model is asked to return.
type generatedQuiz struct {
	Questions []model.Question `json:"questions"`
}

// Generate asks the model for cfg.QuestionCount questions and assembles them
// into a quiz.
func (c *Client) Generate(ctx context.Context, cfg model.QuizConfig) (*model.Quiz, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &model.GenerationError{Err: err}
	}

	var docText string
	if cfg.Source.Kind == model.SourceDocument {
		text, err := document.Extract(cfg.Source.Document)
		if err != nil {
			return nil, &model.GenerationError{Err: fmt.Errorf("read document: %w", err)}
		}
		docText = text
	}

	systemPrompt, err := prompts.BuildSystemPrompt()
	if err != nil {
		return nil, &model.GenerationError{Err: err}
	}
	userPrompt, err := prompts.BuildGeneratePrompt(cfg, docText)
	if err != nil {
		return nil, &model.GenerationError{Err: err}
	}

	slog.Info("requesting quiz from LLM",
		"model", c.model,
		"source", cfg.Source.Kind,
		"count", cfg.QuestionCount,
		"difficulty", cfg.Difficulty,
	)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, &model.GenerationError{Err: fmt.Errorf("LLM API call: %w", err), Retryable: isRetryable(err)}
	}

	if len(resp.Choices) == 0 {
		return nil, &model.GenerationError{Err: errors.New("LLM returned no choices"), Retryable: true}
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw, "total_tokens", resp.Usage.TotalTokens)

	questions, err := parseQuestions(raw)
	if err != nil {
		return nil, &model.GenerationError{Err: err, Retryable: true}
	}
	return generate.Assemble(cfg, questions)
}

// parseQuestions decodes the model's JSON answer, tolerating a Markdown code
// fence around it.
func parseQuestions(raw string) ([]model.Question, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var out generatedQuiz
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	if len(out.Questions) == 0 {
		return nil, fmt.Errorf("LLM response contains no questions (raw: %s)", raw)
	}
	for i := range out.Questions {
		q := &out.Questions[i]
		q.Type = model.QuestionType(strings.ToLower(strings.TrimSpace(string(q.Type))))
		q.Difficulty = model.Difficulty(strings.ToLower(strings.TrimSpace(string(q.Difficulty))))
	}
	return out.Questions, nil
}

// isRetryable reports whether an API failure may succeed on a later attempt:
// transport errors, rate limiting and server errors.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
