// Package llamacpp talks to a running llama.cpp server over HTTP.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"plotbench/pkg/types"
)

const (
	healthPath = "/health"
	chatPath   = "/v1/chat/completions"
)

// ErrMalformedResponse is returned when a 200 response cannot be decoded or
// carries no choices.
var ErrMalformedResponse = errors.New("malformed chat completion response")

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "llama server http error: " + e.Status
	}
	return "llama server http error: " + e.Status + ": " + e.Body
}

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues health probes and chat completions against one server.
type Client struct {
	baseURL string
	http    Doer
}

// NewHTTPClient returns an *http.Client with a bounded dial timeout and no
// overall timeout; every call carries its own context deadline.
func NewHTTPClient(connectTimeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr, Timeout: 0}
}

// New returns a client for baseURL. A nil doer uses NewHTTPClient(2s).
func New(baseURL string, doer Doer) *Client {
	if doer == nil {
		doer = NewHTTPClient(2 * time.Second)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

// BaseURL returns the server root, without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// BaseURL formats the server root for host and port.
func BaseURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, fmt.Sprint(port))
}

// Health performs a single GET /health. Only status 200 counts as healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []types.ChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature *float64            `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage types.Usage `json:"usage"`
}

// ChatCompletion posts req to /v1/chat/completions and returns
// choices[0].message.content.
func (c *Client) ChatCompletion(ctx context.Context, req types.ChatRequest) (types.ChatResult, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return types.ChatResult{}, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return types.ChatResult{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(hreq)
	if err != nil {
		if ctx.Err() != nil {
			return types.ChatResult{}, ctx.Err()
		}
		return types.ChatResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.ChatResult{}, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(b))}
	}
	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.ChatResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil || out.Choices[0].Message.Content == nil {
		return types.ChatResult{}, fmt.Errorf("%w: missing choices[0].message.content", ErrMalformedResponse)
	}
	content := *out.Choices[0].Message.Content
	return types.ChatResult{
		Content:      content,
		WordCount:    len(strings.Fields(content)),
		FinishReason: out.Choices[0].FinishReason,
		Usage:        out.Usage,
	}, nil
}
