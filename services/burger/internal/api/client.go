package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
)

const (
	DefaultBaseURL = "https://norma.education-services.ru/api"
	DefaultTimeout = 10 * time.Second
)

// ErrTimeout is returned when a request is cancelled by its deadline or by
// the caller.
var ErrTimeout = errors.New("request timed out or was aborted")

// timeoutError reads as ErrTimeout and keeps the context error underneath.
type timeoutError struct {
	cause error
}

func (e *timeoutError) Error() string { return ErrTimeout.Error() }

func (e *timeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *timeoutError) Unwrap() error { return e.cause }

// FetchError is a non-2xx answer from the API.
type FetchError struct {
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error: %d %s", e.Status, e.Body)
}

type Options struct {
	BaseURL        string
	IngredientsURL string
	Timeout        time.Duration
}

// OptionsFromConfig reads the api.* keys, falling back to defaults.
func OptionsFromConfig(config *aqm.Config) Options {
	opts := Options{
		BaseURL: config.GetStringOrDef("api.url", DefaultBaseURL),
		Timeout: DefaultTimeout,
	}
	opts.IngredientsURL = config.GetStringOrDef("api.ingredients_url", "")

	if raw, ok := config.GetString("api.timeout"); ok && raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			opts.Timeout = d
		}
	}
	return opts
}

// Client talks to the burger REST API. Every call is bounded by the
// configured timeout.
type Client struct {
	baseURL        string
	ingredientsURL string
	timeout        time.Duration
	httpClient     *http.Client
	logger         aqm.Logger
}

func NewClient(opts Options, logger aqm.Logger) *Client {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.IngredientsURL == "" {
		opts.IngredientsURL = opts.BaseURL + "/ingredients"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL:        opts.BaseURL,
		ingredientsURL: opts.IngredientsURL,
		timeout:        opts.Timeout,
		httpClient:     &http.Client{},
		logger:         logger,
	}
}

// resolveURL keeps absolute URLs and joins relative endpoints to the base URL.
func (c *Client) resolveURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

// do sends a JSON request and decodes the JSON answer into out.
func (c *Client) do(ctx context.Context, method, endpoint string, in interface{}, out interface{}, accessToken string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cannot encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	url := c.resolveURL(endpoint)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &timeoutError{cause: err}
		}
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &timeoutError{cause: err}
		}
		return fmt.Errorf("cannot read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("api request failed", "method", method, "url", url, "status", resp.StatusCode)
		return &FetchError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
