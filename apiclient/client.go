package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TokenSource supplies the bearer token for each call. An empty token means
// the call goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to the BloodLink REST API. Calls are never retried or queued.
type Client struct {
	httpClient *resty.Client
	tokens     TokenSource
	logger     *zap.Logger
}

// NewClient creates a client for the backend at backendURL; requests go to
// backendURL + "/api".
func NewClient(backendURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(backendURL, "/")+"/api").
		SetTimeout(timeout).
		SetRetryCount(0).
		SetLogger(logger.Sugar()).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		tokens:     tokens,
		logger:     logger,
	}
}

// Do issues one call. query and body may be nil; out, when non-nil, receives
// the decoded JSON response.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req := c.httpClient.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if token := c.tokens.Token(); token != "" {
		req.SetAuthToken(token)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil && resp != nil && resp.RawResponse != nil {
		// the call completed but its body could not be decoded
		status := resp.StatusCode()
		c.logger.Warn("API response undecodable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", status),
			zap.Error(err),
		)
		return &Error{Kind: classify(status, ""), Method: method, Path: path, Status: status, Err: err}
	}
	if err != nil {
		c.logger.Warn("API call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return &Error{Kind: Network, Method: method, Path: path, Err: err}
	}

	status := resp.StatusCode()
	if resp.IsError() || status >= http.StatusMultipleChoices {
		eb, _ := resp.Error().(*errorBody)
		msg := eb.message()
		kind := classify(status, msg)
		c.logger.Warn("API call rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", status),
			zap.String("kind", kind.String()),
			zap.String("detail", msg),
		)
		return &Error{Kind: kind, Method: method, Path: path, Status: status, Message: msg}
	}

	if out != nil {
		if err := checkJSONBody(resp); err != nil {
			c.logger.Warn("API response rejected",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status_code", status),
				zap.Error(err),
			)
			return &Error{Kind: Unknown, Method: method, Path: path, Status: status, Err: err}
		}
	}

	c.logger.Debug("API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// checkJSONBody rejects a successful answer that resty could not have decoded.
func checkJSONBody(resp *resty.Response) error {
	ct := resp.Header().Get("Content-Type")
	if !resty.IsJSONType(ct) {
		return fmt.Errorf("unexpected content type %q", ct)
	}
	if len(bytes.TrimSpace(resp.Body())) == 0 {
		return errors.New("empty response body")
	}
	return nil
}
