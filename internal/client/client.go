package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "GraphQL-Introspection-Tool/1.0"
	// DefaultTimeout bounds every request; a request that exceeds it fails
	// with a TransportError and is not retried.
	DefaultTimeout = 30 * time.Second
	// DefaultProxy is used when proxying is requested without an address.
	DefaultProxy = "http://127.0.0.1:8080"
	// DefaultMaxBodySize bounds how much of a response body is read.
	DefaultMaxBodySize = 64 << 20
)

// Payload is the JSON body of a GraphQL request.
type Payload struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

// Response is a raw HTTP response from the target.
type Response struct {
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
}

// TransportError wraps a network, DNS or timeout failure while contacting the
// target. No response was received.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseTooLargeError means the target answered with a body larger than
// the configured limit. The body was discarded.
type ResponseTooLargeError struct {
	URL        string
	StatusCode int
	Limit      int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response from %s exceeds %d bytes", e.URL, e.Limit)
}

// Options holds configuration parameters for initializing the Client.
type Options struct {
	Timeout     time.Duration
	Proxy       string            // Proxy URL for both http and https; enables insecure TLS.
	UserAgent   string            // Defaults to DefaultUserAgent.
	Headers     map[string]string // Extra headers added to every request.
	MaxBodySize int64             // Largest accepted response body in bytes; defaults to DefaultMaxBodySize.
	Logger      logrus.FieldLogger
}

// Client posts GraphQL payloads to a single endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	headers    map[string]string
	maxBody    int64
	log        logrus.FieldLogger
}

// New creates a client for endpoint. TLS certificates are not verified when
// a proxy is configured so intercepting proxies can inspect the traffic.
func New(endpoint string, opts Options) (*Client, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil || proxyURL.Scheme == "" || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", opts.Proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		maxBody:   opts.MaxBodySize,
		log:       opts.Logger,
	}, nil
}

// Do sends the payload and returns the response. Any status code is a
// successful exchange; only failures to get a complete response are errors.
// A body over the size limit yields a *ResponseTooLargeError.
func (c *Client) Do(ctx context.Context, p Payload) (*Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("url", c.endpoint).Debug("request failed")
		return nil, &TransportError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &TransportError{URL: c.endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(respBody)) > c.maxBody {
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"limit":  c.maxBody,
		}).Debug("response body over limit")
		return nil, &ResponseTooLargeError{URL: c.endpoint, StatusCode: resp.StatusCode, Limit: c.maxBody}
	}

	elapsed := time.Since(start)
	c.log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"bytes":   len(respBody),
		"elapsed": elapsed.Round(time.Millisecond),
	}).Debug("response received")

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Elapsed:    elapsed,
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

// ParseHeader splits a "Name: value" header line.
func ParseHeader(line string) (string, string, error) {
	name, value, ok := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.ContainsAny(name, " \t") {
		return "", "", fmt.Errorf("invalid header %q: expected \"Name: value\"", line)
	}
	return name, strings.TrimSpace(value), nil
}
