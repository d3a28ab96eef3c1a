package restclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/wpselfhosted/wpdeploy/internal/logging"
)

// maxResponseSize caps how much of a response body is read into memory.
const maxResponseSize = 10 << 20

// ErrMalformedBody is returned when a response body cannot be decoded into
// the requested value.
var ErrMalformedBody = errors.New("malformed response body")

// RestClient issues authenticated requests against a REST API rooted at a
// base URL. Paths are relative to that base.
type RestClient interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body Body, out any) error
	Patch(ctx context.Context, path string, body Body, out any) error
}

// Body is a request payload.
type Body struct {
	Reader      io.Reader
	ContentType string
	// ContentLength is sent when positive.
	ContentLength int64
	Header        http.Header
}

// Form encodes values as an application/x-www-form-urlencoded body.
func Form(values url.Values) Body {
	encoded := values.Encode()
	return Body{
		Reader:        strings.NewReader(encoded),
		ContentType:   "application/x-www-form-urlencoded",
		ContentLength: int64(len(encoded)),
	}
}

// Config holds the connection settings of a Client.
type Config struct {
	BaseURL            string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	UserAgent          string
}

// Client is the HTTP implementation of RestClient using basic authentication.
type Client struct {
	baseURL    *url.URL
	username   string
	password   string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Client. BaseURL must be an absolute http or https URL.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in via configuration
	}

	return &Client{
		baseURL:   base,
		username:  cfg.Username,
		password:  cfg.Password,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logging.Ensure(logger).With("component", "restclient"),
	}, nil
}

// Get issues a GET request with the given query and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, Body{}, out)
}

// Post issues a POST request and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body Body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch issues a PATCH request and decodes the JSON response into out.
func (c *Client) Patch(ctx context.Context, path string, body Body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) resolve(path string, query url.Values) *url.URL {
	target := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body Body, out any) error {
	target := c.resolve(path, query)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body.Reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, values := range body.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body.ContentType != "" {
		req.Header.Set("Content-Type", body.ContentType)
	}
	if body.ContentLength > 0 {
		req.ContentLength = body.ContentLength
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, target.Path, err)
	}

	c.logger.Debug("request completed",
		"method", method,
		"path", target.Path,
		"status", resp.StatusCode,
		"duration", time.Since(started),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(method, target.Path, resp, payload)
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedBody, method, target.Path, err)
	}
	return nil
}
