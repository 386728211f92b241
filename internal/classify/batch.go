package classify

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/nhle/jobtracker/internal/model"
)

// completionClient is the slice of the OpenAI client the batch
// classifier needs. *openai.Client satisfies it; tests inject fakes.
type completionClient interface {
	CreateChatCompletion(
		ctx context.Context,
		request openai.ChatCompletionRequest,
	) (openai.ChatCompletionResponse, error)
}

// BatchClassifier classifies emails in ordered batches through one
// chat-completion request per batch. It reduces request count by the
// batch factor versus one call per email while staying within the
// provider's context limits.
type BatchClassifier struct {
	client    completionClient
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewBatchClassifier creates a classifier backed by an
// OpenAI-compatible endpoint (the default configuration targets
// OpenRouter).
func NewBatchClassifier(apiKey string, cfg model.AIConfig) *BatchClassifier {
	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return newBatchClassifier(
		openai.NewClientWithConfig(clientConfig), cfg,
	)
}

// newBatchClassifier wires a classifier onto an existing client.
func newBatchClassifier(client completionClient, cfg model.AIConfig) *BatchClassifier {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}

	return &BatchClassifier{
		client:    client,
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

// ClassifyBatch issues one classification request for the batch and
// returns exactly one record per email, in batch order. It returns a
// ParseError, ProviderError, or UnauthorizedError when the batch could
// not be classified; the caller decides how to fall back.
//
// A transient failure (timeout, network, 429, 5xx) is retried once
// immediately. A credential rejection is never retried.
func (c *BatchClassifier) ClassifyBatch(
	ctx context.Context, batch []model.NormalizedEmail,
) ([]model.ClassifiedRecord, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	text, err := c.request(ctx, batch)
	if err != nil && isTransient(err) {
		log.Warn().Err(err).Int("batch_size", len(batch)).
			Msg("transient provider failure, retrying batch once")
		text, err = c.request(ctx, batch)
	}
	if err != nil {
		if isUnauthorized(err) {
			return nil, &UnauthorizedError{Err: err}
		}
		return nil, &ProviderError{Err: err}
	}

	entries, err := parseBatchResponse(text, len(batch))
	if err != nil {
		return nil, err
	}

	records := make([]model.ClassifiedRecord, len(batch))
	for i, email := range batch {
		records[i] = model.ClassifiedRecord{
			Sender:          email.Sender,
			Subject:         email.Subject,
			Date:            email.Date,
			Category:        entries[i].Category,
			Summary:         entries[i].Summary,
			SuggestedAction: entries[i].Action,
		}
	}

	return records, nil
}

// request issues a single bounded chat-completion call and returns the
// completion text.
func (c *BatchClassifier) request(
	ctx context.Context, batch []model.NormalizedEmail,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildBatchPrompt(batch),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

// isUnauthorized reports whether the provider definitively rejected
// the API key.
func isUnauthorized(err error) bool {
	if status, ok := httpStatus(err); ok {
		return status == 401 || status == 403
	}
	return false
}

// isTransient reports whether the failure is worth one immediate
// retry: timeouts, network errors, rate limiting, and server errors.
// Definitive rejections (bad credentials, malformed request) are not.
func isTransient(err error) bool {
	// A cancelled run is dead; retrying it only delays shutdown.
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if status, ok := httpStatus(err); ok {
		return status == 429 || status >= 500
	}

	// Transport-level failures surface as plain wrapped errors.
	return true
}

// httpStatus extracts the HTTP status from go-openai error types.
func httpStatus(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}

	return 0, false
}
