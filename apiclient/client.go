// Package apiclient talks to the shop's REST API: products, uploads, images
// and admin login. Responses arrive wrapped in a {success, data, error}
// envelope.
package apiclient

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

	"tienda-web/core"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const DefaultTimeout = 10 * time.Second

var (
	ErrUnauthorized = errors.New("apiclient: unauthorized")
	// ErrNetwork wraps transport failures where no response arrived.
	ErrNetwork = errors.New("apiclient: network error")
)

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client is bound to one visitor's token store. Construct one per request;
// the underlying transport is shared.
type Client struct {
	baseURL        string
	timeout        time.Duration
	transport      http.RoundTripper
	tokens         TokenStore
	onUnauthorized func()
}

func New(opts Options, tokens TokenStore) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		timeout:   opts.Timeout,
		transport: opts.Transport,
		tokens:    tokens,
	}
}

// OnUnauthorized sets the callback run after a 401 has cleared the token.
func (c *Client) OnUnauthorized(fn func()) *Client {
	c.onUnauthorized = fn
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: HTTP %d", e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// tokenSource hands the visitor's bearer token to oauth2.Transport.
type tokenSource struct {
	ctx    context.Context
	tokens TokenStore
}

func (s tokenSource) Token() (*oauth2.Token, error) {
	raw, err := s.tokens.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrUnauthorized
	}
	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, ok := TokenExpiry(raw); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

func (c *Client) httpClient(ctx context.Context, authenticated bool) *http.Client {
	if !authenticated || c.tokens == nil {
		return &http.Client{Transport: c.transport, Timeout: c.timeout}
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: tokenSource{ctx: ctx, tokens: c.tokens}, Base: c.transport},
		Timeout:   c.timeout,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and decodes the envelope's data into out.
func (c *Client) do(req *http.Request, authenticated bool, out any) error {
	log := logrus.WithFields(logrus.Fields{"method": req.Method, "path": req.URL.Path})

	resp, err := c.httpClient(req.Context(), authenticated).Do(req)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.unauthorized(req.Context())
			return ErrUnauthorized
		}
		log.WithError(err).Warn("API request failed")
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Status: resp.StatusCode}
		if decodeErr == nil && env.Error != nil {
			statusErr.Code, statusErr.Message = env.Error.Code, env.Error.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(req.Context())
		}
		log.WithField("status", resp.StatusCode).Warn("API returned an error")
		return statusErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) unauthorized(ctx context.Context) {
	if c.tokens != nil {
		if err := c.tokens.Clear(ctx); err != nil {
			logrus.WithError(err).Error("Failed to clear auth token")
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) call(ctx context.Context, method, path string, body any, authenticated bool, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.do(req, authenticated, out)
}

// Factory builds clients bound to a visitor's token store.
type Factory struct {
	opts  Options
	items core.ItemStore
}

func NewFactory(opts Options, items core.ItemStore) *Factory {
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	return &Factory{opts: opts, items: items}
}

func (f *Factory) ForVisitor(visitorID string) *Client {
	return New(f.opts, NewItemTokenStore(f.items, visitorID))
}
