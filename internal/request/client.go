package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"loon-cli/internal/model"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	appTitle        = "Loon"
	maxErrorBody    = 4 << 10
	defaultTimeout  = 2 * time.Minute
	breakerFailures = 3
	breakerCooldown = 30 * time.Second
)

// Completer produces one completion for a conversation context.
type Completer interface {
	Complete(ctx context.Context, nodes []model.Node, card model.ModelCard, apiKey string) (string, error)
}

// Client talks to OpenAI-compatible chat and completion endpoints. Each
// endpoint gets its own circuit breaker so a failing provider fails fast
// without affecting the others.
type Client struct {
	http *http.Client
	log  *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		log:      zap.NewNop(),
		breakers: map[string]*gobreaker.CircuitBreaker{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) breaker(endpoint string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[endpoint]; ok {
		return cb
	}
	log := c.log
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    endpoint,
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Retryable()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("completion endpoint breaker changed state",
				zap.String("endpoint", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	c.breakers[endpoint] = cb
	return cb
}

// Complete sends nodes to card's endpoint and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, nodes []model.Node, card model.ModelCard, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("%w for service %q", ErrNoAPIKey, card.KeyService())
	}
	endpoint := strings.TrimSpace(card.Endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("model card %q has no endpoint", card.Name)
	}

	out, err := c.breaker(endpoint).Execute(func() (interface{}, error) {
		return c.do(ctx, endpoint, nodes, card, apiKey)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("endpoint %s temporarily unavailable: %w", endpoint, err)
		}
		return "", err
	}
	return out.(string), nil
}

func (c *Client) do(ctx context.Context, endpoint string, nodes []model.Node, card model.ModelCard, apiKey string) (string, error) {
	payload, err := json.Marshal(requestBody(nodes, card))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range card.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", appTitle)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.log.Debug("completion response",
		zap.String("endpoint", endpoint),
		zap.String("model", card.Model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return decoded.text(card.Format)
}

type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
		Text *string `json:"text"`
	} `json:"choices"`
	Error *errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Code    any    `json:"code"`
}

func (r completionResponse) text(format model.CardFormat) (string, error) {
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("provider error: %s", r.Error.Message)
	}
	if len(r.Choices) == 0 {
		return "", errors.New("invalid response: no choices")
	}
	first := r.Choices[0]
	if format == model.FormatCompletion && first.Text != nil {
		return *first.Text, nil
	}
	if first.Message != nil && first.Message.Content != nil {
		return *first.Message.Content, nil
	}
	if first.Text != nil {
		return *first.Text, nil
	}
	return "", errors.New("invalid response: first choice has no content")
}

// errorMessage pulls a readable message out of an error body, falling back to
// the raw text.
func errorMessage(body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil && len(env.Error) > 0 {
		var nested errorEnvelope
		if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var s string
		if json.Unmarshal(env.Error, &s) == nil && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(body))
}
