package arbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// API is the set of Arbox operations. It is implemented by *Client and can
// be faked in tests.
type API interface {
	Login(ctx context.Context, creds Credentials) (TokenPair, error)
	Profile(ctx context.Context, tokens TokenPair) (json.RawMessage, error)
	ScheduleBetweenDates(ctx context.Context, tokens TokenPair, query ScheduleQuery) (json.RawMessage, error)
	BookLesson(ctx context.Context, tokens TokenPair, req BookingRequest) (json.RawMessage, error)
	CancelBooking(ctx context.Context, tokens TokenPair, req CancelRequest) (json.RawMessage, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the Arbox mobile API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

const (
	DefaultBaseURL = "https://apiappv2.arboxapp.com"
	defaultTimeout = 15 * time.Second
)

// Header values mirror the Android app. The lower-case names are sent as-is.
const (
	headerAccept       = "accept"
	headerContentType  = "Content-Type"
	headerConnection   = "Connection"
	headerReferer      = "referername"
	headerUserAgent    = "User-Agent"
	headerVersion      = "version"
	headerWhitelabel   = "whitelabel"
	headerAccessToken  = "accesstoken"
	headerRefreshToken = "refreshtoken"

	acceptValue     = "application/json, text/plain, */*"
	contentTypeJSON = "application/json"
	connectionValue = "Keep-Alive"
	refererValue    = "app"
	userAgentValue  = "okhttp/4.9.2"
	versionValue    = "11"
	whitelabelValue = "Arbox"
)

type endpoint struct {
	op     string
	method string
	path   string
}

var (
	loginEndpoint    = endpoint{"login", http.MethodPost, "/api/v2/user/login"}
	profileEndpoint  = endpoint{"get_profile", http.MethodGet, "/api/v2/user/profile"}
	scheduleEndpoint = endpoint{"get_schedule_between_dates", http.MethodPost, "/api/v2/schedule/betweenDates"}
	bookEndpoint     = endpoint{"schedule_lesson", http.MethodPost, "/api/v2/scheduleUser/insert"}
	cancelEndpoint   = endpoint{"delete_schedule", http.MethodPost, "/api/v2/scheduleUser/delete"}
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client is never
// modified; WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a logger. Calls are logged at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient builds a Client for baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// Login exchanges credentials for a token pair. The response spells the token
// keys either way; lower-case wins when both are present.
func (c *Client) Login(ctx context.Context, creds Credentials) (TokenPair, error) {
	if c == nil {
		return TokenPair{}, fmt.Errorf("client is nil")
	}
	body := loginBody{Email: creds.Email, Password: creds.Password}
	raw, err := c.do(ctx, loginEndpoint, nil, body)
	if err != nil {
		return TokenPair{}, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return TokenPair{}, fmt.Errorf("decode response: %w", err)
	}
	return TokenPair{
		AccessToken:  firstString(fields, "accesstoken", "accessToken"),
		RefreshToken: firstString(fields, "refreshtoken", "refreshToken"),
	}, nil
}

// Profile returns the user profile. It requires an access token; an empty
// refresh token is sent as an empty header.
func (c *Client) Profile(ctx context.Context, tokens TokenPair) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if tokens.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	return c.do(ctx, profileEndpoint, &tokens, nil)
}

// ScheduleBetweenDates lists classes for a box. Both tokens are required.
// The server's handling of the from/to range is undocumented; the bounds are
// sent exactly as given.
func (c *Client) ScheduleBetweenDates(ctx context.Context, tokens TokenPair, query ScheduleQuery) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, ErrNotAuthenticated
	}
	body := scheduleBody{
		From:           FormatTimestamp(query.From),
		To:             FormatTimestamp(query.To),
		LocationsBoxID: query.LocationBoxID,
		BoxesID:        query.BoxID,
	}
	return c.do(ctx, scheduleEndpoint, &tokens, body)
}

// BookLesson books a class. Tokens are not checked locally; the server
// decides.
func (c *Client) BookLesson(ctx context.Context, tokens TokenPair, req BookingRequest) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body := bookingBody{
		ScheduleID:       req.ScheduleID,
		MembershipUserID: req.MembershipUserID,
	}
	if len(req.Extras) > 0 {
		body.Extras = req.Extras
	}
	return c.do(ctx, bookEndpoint, &tokens, body)
}

// CancelBooking deletes a booking. Like BookLesson it performs no local token
// check.
func (c *Client) CancelBooking(ctx context.Context, tokens TokenPair, req CancelRequest) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body := cancelBody{
		ScheduleUserID: req.ScheduleUserID,
		ScheduleID:     req.ScheduleID,
		LateCancel:     req.LateCancel,
	}
	return c.do(ctx, cancelEndpoint, &tokens, body)
}

// do sends one request and returns the raw JSON body of a 200 response.
// tokens is nil for unauthenticated calls and body is nil for calls without
// a payload.
func (c *Client) do(ctx context.Context, ep endpoint, tokens *TokenPair, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: ep.path})
	req, err := http.NewRequestWithContext(ctx, ep.method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setHeaders(req.Header, body != nil, tokens)

	requestID := uuid.NewString()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("arbox request failed",
			zap.String("op", ep.op),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("arbox request",
		zap.String("op", ep.op),
		zap.String("method", ep.method),
		zap.String("path", ep.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Op: ep.op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decode response: %w", errInvalidJSON)
	}
	return json.RawMessage(raw), nil
}

// setHeaders writes the fixed header set. Keys are assigned directly so the
// lower-case names are not canonicalised.
func setHeaders(h http.Header, hasBody bool, tokens *TokenPair) {
	h[headerAccept] = []string{acceptValue}
	if hasBody {
		h[headerContentType] = []string{contentTypeJSON}
	}
	h[headerConnection] = []string{connectionValue}
	h[headerReferer] = []string{refererValue}
	h[headerUserAgent] = []string{userAgentValue}
	h[headerVersion] = []string{versionValue}
	h[headerWhitelabel] = []string{whitelabelValue}
	if tokens != nil {
		h[headerAccessToken] = []string{tokens.AccessToken}
		h[headerRefreshToken] = []string{tokens.RefreshToken}
	}
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
