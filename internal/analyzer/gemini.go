// internal/analyzer/gemini.go
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/signalnine/netloginsight/internal/protocol"
)

// maxResponseBytes bounds how much of a model response is read
const maxResponseBytes = 8 << 20

var (
	// ErrMissingCredential indicates no model API key is configured
	ErrMissingCredential = errors.New("API key is missing, set API_KEY (or VITE_API_KEY) in the environment")

	// ErrEmptyInput indicates there is no log content to analyse
	ErrEmptyInput = errors.New("log content is empty")

	// ErrMalformedResponse indicates the model answered with something other
	// than a result matching the output schema
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrModelUnavailable indicates the model endpoint could not be reached or
	// answered with a gateway error
	ErrModelUnavailable = errors.New("model service unavailable")
)

// APIError is a non-success answer from the model endpoint
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API error %d: %s", e.StatusCode, e.Body)
}

// Config for the analysis client
type Config struct {
	BaseURL        string
	Model          string
	APIKey         string
	Timeout        time.Duration
	ReportLanguage string
}

// Client sends log text to a Gemini generateContent endpoint and returns the
// structured analysis. One request per call; there is no retry or fallback.
type Client struct {
	cfg         Config
	instruction string
	client      *http.Client
}

// New creates a new analysis client
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		cfg:         cfg,
		instruction: Instruction(cfg.ReportLanguage),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.cfg.Model
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *Schema `json:"responseSchema"`
}

type generateRequest struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

// Analyze sends the log text to the model and returns the analysis along
// with the request latency in milliseconds.
func (c *Client) Analyze(ctx context.Context, logContent string) (*protocol.AnalysisResult, int64, error) {
	if strings.TrimSpace(logContent) == "" {
		return nil, 0, ErrEmptyInput
	}
	if c.cfg.APIKey == "" {
		return nil, 0, ErrMissingCredential
	}

	reqBody := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: c.instruction}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: logContent}}},
		},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   ResponseSchema(),
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, err
	}

	endpoint := c.cfg.BaseURL + "/v1beta/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		latency := time.Since(start).Milliseconds()
		// Caller went away; the model was not at fault
		if errors.Is(err, context.Canceled) {
			return nil, latency, err
		}
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, latency, fmt.Errorf("%w: connection failed: %w", ErrModelUnavailable, err)
		}
		return nil, latency, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, latency, fmt.Errorf("read model response: %w", err)
	}

	slog.Debug("model responded",
		slog.String("model", c.cfg.Model),
		slog.Int("status", resp.StatusCode),
		slog.Int64("latency_ms", latency),
	)

	// Gateway errors mean the service itself is down
	if resp.StatusCode == http.StatusBadGateway ||
		resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == http.StatusGatewayTimeout {
		return nil, latency, fmt.Errorf("%w: HTTP %d", ErrModelUnavailable, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, latency, &APIError{StatusCode: resp.StatusCode, Body: apiErrorMessage(body)}
	}

	text, err := responseText(body)
	if err != nil {
		return nil, latency, err
	}

	result, err := DecodeResult(text)
	if err != nil {
		return nil, latency, err
	}
	return result, latency, nil
}

// responseText pulls the first candidate's text out of the response envelope
func responseText(body []byte) ([]byte, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	text := v.GetStringBytes("candidates", "0", "content", "parts", "0", "text")
	if len(bytes.TrimSpace(text)) == 0 {
		if reason := v.GetStringBytes("promptFeedback", "blockReason"); len(reason) > 0 {
			return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrMalformedResponse, reason)
		}
		return nil, fmt.Errorf("%w: no response from model", ErrMalformedResponse)
	}

	// The parser reuses its buffers, so hand back a copy
	return append([]byte(nil), text...), nil
}

// apiErrorMessage extracts error.message from a Google API error body,
// falling back to the raw body.
func apiErrorMessage(body []byte) string {
	if msg := fastjson.GetString(body, "error", "message"); msg != "" {
		return msg
	}
	return strings.TrimSpace(string(body))
}

// IsUnavailable checks if the error indicates the model service is down
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}
