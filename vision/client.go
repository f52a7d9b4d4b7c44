// Package vision describes images with a remote multimodal chat model.
//
// The client speaks the OpenAI chat completions protocol, so any compatible
// endpoint can be configured through the base URL. Images are sent inline as
// base64 PNG data URLs. Answers pass through StripNumbering before they are
// returned from Recognize.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tsawler/gleaner/model"
)

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
	defaultTimeout   = 2 * time.Minute
	defaultDetail    = "high"
)

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxTokens caps the length of each answer.
	MaxTokens int
	// Timeout bounds each recognition call. There are no retries.
	Timeout time.Duration
	// Detail is the image detail hint: "low", "high" or "auto".
	Detail string
	// Prompt replaces DefaultPrompt when set.
	Prompt string
}

// Client is a recognize.Engine backed by a vision-capable chat model.
type Client struct {
	client openai.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a client. A missing API key is reported as a dependency
// failure so callers can decide whether to fall back to local OCR.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, model.Errorf(model.KindDependencyUnavailable, "vision: API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Detail == "" {
		cfg.Detail = defaultDetail
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Name implements recognize.Engine.
func (c *Client) Name() string { return "vision" }

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Recognize describes a PNG image and strips list numbering from the answer.
func (c *Client) Recognize(ctx context.Context, png []byte) (string, error) {
	text, err := c.Describe(ctx, png)
	if err != nil {
		return "", err
	}
	return StripNumbering(text), nil
}

// Describe returns the model's raw answer for a PNG image.
func (c *Client) Describe(ctx context.Context, png []byte) (string, error) {
	reqID := uuid.NewString()
	start := time.Now()

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(c.cfg.Prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURL,
					Detail: c.cfg.Detail,
				}),
			}),
		},
		MaxTokens: openai.Int(int64(c.cfg.MaxTokens)),
	}, option.WithHeader("X-Request-ID", reqID))

	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		err = classify(ctx, err)
		c.logger.Warn("vision request failed",
			"req_id", reqID,
			"model", c.cfg.Model,
			"elapsed_ms", elapsed,
			"error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision: no choices returned (req_id=%s)", reqID)
	}

	c.logger.Debug("vision request ok",
		"req_id", reqID,
		"model", c.cfg.Model,
		"elapsed_ms", elapsed,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// classify maps API and transport errors onto the failure taxonomy.
// Authentication, quota, missing models, server errors and unreachable
// endpoints stop the call; anything else is scoped to the image.
func classify(ctx context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch code := apiErr.StatusCode; {
		case code == http.StatusUnauthorized,
			code == http.StatusForbidden,
			code == http.StatusNotFound,
			code == http.StatusTooManyRequests,
			code >= 500:
			return model.NewError(model.KindDependencyUnavailable, "", fmt.Errorf("vision: %w", err))
		}
		return fmt.Errorf("vision: %w", err)
	}

	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		// Per-request timeout; the caller's context is still live.
		return fmt.Errorf("vision: request timed out: %w", err)
	}

	var netErr net.Error
	var opErr *net.OpError
	if errors.As(err, &opErr) || (errors.As(err, &netErr) && !netErr.Timeout()) {
		return model.NewError(model.KindDependencyUnavailable, "", fmt.Errorf("vision: %w", err))
	}
	return fmt.Errorf("vision: %w", err)
}
