// Package bitrix sends authenticated REST calls to a Bitrix24 portal.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/metrics"
	"github.com/Harshitk-cp/crmgate/internal/transport"
	"go.uber.org/zap"
)

// TokenSource yields a currently valid access token for a portal.
type TokenSource interface {
	EnsureValidToken(ctx context.Context, portal string) (string, error)
}

// Response is the envelope every REST method returns.
type Response struct {
	Result           json.RawMessage `json:"result"`
	Total            int             `json:"total,omitempty"`
	Next             int             `json:"next,omitempty"`
	Error            string          `json:"error,omitempty"`
	ErrorDescription string          `json:"error_description,omitempty"`
}

// Decode unmarshals the result into v.
func (r *Response) Decode(v any) error {
	if len(r.Result) == 0 {
		return domain.NewError(domain.ErrUpstreamAPI, "Bitrix24 API error: empty result")
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return domain.WrapError(domain.ErrUpstreamAPI, err, "Bitrix24 API error: unexpected result shape")
	}
	return nil
}

// IsNull reports whether the result is absent or JSON null.
func (r *Response) IsNull() bool {
	trimmed := bytes.TrimSpace(r.Result)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

type Client struct {
	tokens     TokenSource
	httpClient *http.Client
	scheme     string
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithScheme overrides the URL scheme, "https" by default.
func WithScheme(scheme string) Option {
	return func(c *Client) { c.scheme = scheme }
}

func NewClient(tokens TokenSource, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		tokens:     tokens,
		httpClient: transport.NewHTTPClient(transport.DefaultTimeout),
		scheme:     "https",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes a REST method on the portal with a JSON payload. One attempt
// is made; a nil payload is sent as an empty object.
func (c *Client) Call(ctx context.Context, portal, method string, payload any) (*Response, error) {
	start := time.Now()
	resp, err := c.call(ctx, portal, method, payload)
	metrics.ObserveRemoteCall(method, start, err)
	if err != nil {
		c.logger.Warn("bitrix call failed",
			zap.String("domain", portal),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("bitrix call succeeded",
		zap.String("domain", portal),
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (c *Client) call(ctx context.Context, portal, method string, payload any) (*Response, error) {
	token, err := c.tokens.EnsureValidToken(ctx, portal)
	if err != nil {
		return nil, err
	}

	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInternal, err, "marshal %s payload", method)
	}

	endpoint := fmt.Sprintf("%s://%s/rest/1/%s/%s", c.scheme, portal, token, method)
	// The call outlives a cancelled caller; the client timeout bounds it.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		// The URL carries the token; do not wrap the parse error verbatim.
		return nil, domain.NewError(domain.ErrInternal, "create %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transport.Classify(unwrapURLError(err))
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transport.Classify(unwrapURLError(err))
	}

	var out Response
	decodeErr := json.Unmarshal(respBody, &out)
	if decodeErr == nil && out.Error != "" {
		reason := out.ErrorDescription
		if reason == "" {
			reason = out.Error
		}
		return nil, &domain.Error{
			Kind:    domain.ErrUpstreamAPI,
			Message: "Bitrix24 API error: " + reason,
			Code:    out.Error,
			Status:  httpResp.StatusCode,
		}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, transport.StatusError(httpResp.StatusCode)
	}
	if decodeErr != nil {
		return nil, domain.WrapError(domain.ErrUpstreamAPI, decodeErr, "Bitrix24 API error: malformed response")
	}
	return &out, nil
}

// unwrapURLError drops the *url.Error wrapper so the request URL, which embeds
// the access token, never reaches logs or API responses.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
