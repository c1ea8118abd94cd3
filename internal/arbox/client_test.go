package arbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// countingTransport records every request that reaches the network.
type countingTransport struct {
	mu    sync.Mutex
	calls int
	last  *http.Request
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.calls++
	t.last = req
	t.mu.Unlock()
	return http.DefaultTransport.RoundTrip(req)
}

func (t *countingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *countingTransport) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	transport := &countingTransport{}
	c, err := NewClient(server.URL, WithHTTPClient(&http.Client{Transport: transport, Timeout: 2 * time.Second}))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c, transport
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	return body
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultBaseURL {
		t.Fatalf("base = %q, want %q", u.String(), DefaultBaseURL)
	}

	u, err = parseBaseURL("apiappv2.arboxapp.com/api/v2?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("https://"); err == nil {
		t.Fatalf("parseBaseURL accepted a url without host")
	}
}

func TestLogin_CamelCaseFallback(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"accessToken":"A","refreshToken":"R"}`)
	})

	tokens, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if tokens.AccessToken != "A" || tokens.RefreshToken != "R" {
		t.Fatalf("tokens = %#v, want A/R", tokens)
	}
}

func TestLogin_PrefersLowerCaseKeys(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"accessToken":"camel-a","accesstoken":"lower-a","refreshToken":"camel-r","refreshtoken":"lower-r"}`)
	})

	tokens, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if tokens.AccessToken != "lower-a" || tokens.RefreshToken != "lower-r" {
		t.Fatalf("tokens = %#v, want lower-case values", tokens)
	}
}

func TestLogin_MissingKeysYieldEmptyTokens(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"user":{"id":7}}`)
	})

	tokens, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if tokens != (TokenPair{}) {
		t.Fatalf("tokens = %#v, want empty pair", tokens)
	}
}

func TestLogin_SendsCredentialsAndFixedHeaders(t *testing.T) {
	t.Parallel()

	var gotPath, gotMethod string
	var gotBody map[string]any
	var gotHeader http.Header
	c, transport := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotHeader = r.Header.Clone()
		gotBody = decodeBody(t, r)
		_, _ = io.WriteString(w, `{"accesstoken":"T1","refreshtoken":"T2"}`)
	})

	if _, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/v2/user/login" {
		t.Fatalf("request = %s %s, want POST /api/v2/user/login", gotMethod, gotPath)
	}
	if gotBody["email"] != "a@b.com" || gotBody["password"] != "x" {
		t.Fatalf("body = %v, want credentials", gotBody)
	}

	want := map[string]string{
		"accept":       acceptValue,
		"Content-Type": contentTypeJSON,
		"referername":  refererValue,
		"User-Agent":   userAgentValue,
		"version":      versionValue,
		"whitelabel":   whitelabelValue,
	}
	for key, value := range want {
		if got := gotHeader.Get(key); got != value {
			t.Fatalf("header %s = %q, want %q", key, got, value)
		}
	}
	if gotHeader.Get("accesstoken") != "" {
		t.Fatalf("login should not send an access token header")
	}

	// The outgoing header map must keep the lower-case spellings.
	for _, key := range []string{"accept", "referername", "version", "whitelabel"} {
		if _, ok := transport.last.Header[key]; !ok {
			t.Fatalf("outgoing header %q not set verbatim: %v", key, transport.last.Header)
		}
	}
	if _, ok := transport.last.Header["Connection"]; !ok {
		t.Fatalf("outgoing Connection header missing")
	}
}

func TestLoginThenProfile_RoundTrip(t *testing.T) {
	t.Parallel()

	var gotAccess, gotRefresh string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/user/login":
			_, _ = io.WriteString(w, `{"accesstoken":"T1","refreshtoken":"T2"}`)
		case "/api/v2/user/profile":
			if r.Method != http.MethodGet {
				t.Errorf("profile method = %s, want GET", r.Method)
			}
			gotAccess = r.Header.Get("accesstoken")
			gotRefresh = r.Header.Get("refreshtoken")
			_, _ = io.WriteString(w, `{"name":"Jane"}`)
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	tokens, err := c.Login(ctx, Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if tokens != (TokenPair{AccessToken: "T1", RefreshToken: "T2"}) {
		t.Fatalf("tokens = %#v, want T1/T2", tokens)
	}

	profile, err := c.Profile(ctx, tokens)
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}
	if string(profile) != `{"name":"Jane"}` {
		t.Fatalf("profile = %s, want {\"name\":\"Jane\"}", profile)
	}
	if gotAccess != "T1" || gotRefresh != "T2" {
		t.Fatalf("token headers = %q/%q, want T1/T2", gotAccess, gotRefresh)
	}
}

func TestProfile_EmptyRefreshTokenSentAsEmptyHeader(t *testing.T) {
	t.Parallel()

	c, transport := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	if _, err := c.Profile(context.Background(), TokenPair{AccessToken: "T1"}); err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}
	values, ok := transport.last.Header["refreshtoken"]
	if !ok || len(values) != 1 || values[0] != "" {
		t.Fatalf("refreshtoken header = %v (present=%v), want single empty value", values, ok)
	}
	if _, ok := transport.last.Header["Content-Type"]; ok {
		t.Fatalf("GET without body should not set Content-Type")
	}
}

func TestPreconditions_FailWithoutNetwork(t *testing.T) {
	t.Parallel()

	c, transport := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	ctx := context.Background()

	if _, err := c.Profile(ctx, TokenPair{RefreshToken: "R"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Profile error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := c.ScheduleBetweenDates(ctx, TokenPair{RefreshToken: "R"}, ScheduleQuery{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("ScheduleBetweenDates error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := c.ScheduleBetweenDates(ctx, TokenPair{AccessToken: "A"}, ScheduleQuery{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("ScheduleBetweenDates without refresh token error = %v, want ErrNotAuthenticated", err)
	}
	if n := transport.count(); n != 0 {
		t.Fatalf("transport invoked %d times, want 0", n)
	}
}

func TestBookAndCancel_SendWithoutTokens(t *testing.T) {
	t.Parallel()

	var paths []string
	var mu sync.Mutex
	c, transport := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	ctx := context.Background()

	if _, err := c.BookLesson(ctx, TokenPair{}, BookingRequest{ScheduleID: 1, MembershipUserID: 2}); err != nil {
		t.Fatalf("BookLesson returned error: %v", err)
	}
	if _, err := c.CancelBooking(ctx, TokenPair{}, CancelRequest{ScheduleID: 1, ScheduleUserID: 3}); err != nil {
		t.Fatalf("CancelBooking returned error: %v", err)
	}
	if n := transport.count(); n != 2 {
		t.Fatalf("transport invoked %d times, want 2", n)
	}
	if len(paths) != 2 || paths[0] != "/api/v2/scheduleUser/insert" || paths[1] != "/api/v2/scheduleUser/delete" {
		t.Fatalf("paths = %v, want insert then delete", paths)
	}
}

func TestOperations_NonOKReturnsAPIError(t *testing.T) {
	t.Parallel()

	const body = `{"error":"Session expired"}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, body)
	})
	tokens := TokenPair{AccessToken: "A", RefreshToken: "R"}

	ops := []struct {
		name string
		op   string
		call func(ctx context.Context) error
	}{
		{"login", "login", func(ctx context.Context) error {
			_, err := c.Login(ctx, Credentials{Email: "a@b.com", Password: "x"})
			return err
		}},
		{"profile", "get_profile", func(ctx context.Context) error {
			_, err := c.Profile(ctx, tokens)
			return err
		}},
		{"schedule", "get_schedule_between_dates", func(ctx context.Context) error {
			_, err := c.ScheduleBetweenDates(ctx, tokens, ScheduleQuery{})
			return err
		}},
		{"book", "schedule_lesson", func(ctx context.Context) error {
			_, err := c.BookLesson(ctx, tokens, BookingRequest{})
			return err
		}},
		{"cancel", "delete_schedule", func(ctx context.Context) error {
			_, err := c.CancelBooking(ctx, tokens, CancelRequest{})
			return err
		}},
	}

	for _, tt := range ops {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(context.Background())
			if err == nil {
				t.Fatalf("%s returned nil error, want rejection", tt.name)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("%s error = %T %v, want *APIError", tt.name, err, err)
			}
			if apiErr.Op != tt.op || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Body != body {
				t.Fatalf("APIError = %#v, want op=%s status=401 body=%s", apiErr, tt.op, body)
			}
			msg := err.Error()
			if !strings.Contains(msg, "401") || !strings.Contains(msg, body) {
				t.Fatalf("error text %q, want status and body", msg)
			}
			if !IsRejected(err, http.StatusUnauthorized) || IsRejected(err, http.StatusNotFound) {
				t.Fatalf("IsRejected mismatch for %v", err)
			}
		})
	}
}

func TestNonOKOtherThan4xxStillRejected(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.BookLesson(context.Background(), TokenPair{}, BookingRequest{})
	if !IsRejected(err, http.StatusCreated) {
		t.Fatalf("BookLesson error = %v, want rejection with status 201", err)
	}
}

func TestScheduleBetweenDates_RequestShape(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	var gotAccess, gotRefresh string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/schedule/betweenDates" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		gotAccess = r.Header.Get("accesstoken")
		gotRefresh = r.Header.Get("refreshtoken")
		gotBody = decodeBody(t, r)
		_, _ = io.WriteString(w, `[{"id":1}]`)
	})

	loc := time.FixedZone("IDT", 3*60*60)
	from := time.Date(2025, time.July, 7, 3, 0, 0, 0, loc)
	to := time.Date(2025, time.July, 7, 23, 59, 59, 999_000_000, time.UTC)
	raw, err := c.ScheduleBetweenDates(context.Background(), TokenPair{AccessToken: "A", RefreshToken: "R"}, ScheduleQuery{
		From:          from,
		To:            to,
		LocationBoxID: 12,
		BoxID:         34,
	})
	if err != nil {
		t.Fatalf("ScheduleBetweenDates returned error: %v", err)
	}
	if string(raw) != `[{"id":1}]` {
		t.Fatalf("payload = %s, want verbatim body", raw)
	}
	if gotAccess != "A" || gotRefresh != "R" {
		t.Fatalf("token headers = %q/%q, want A/R", gotAccess, gotRefresh)
	}
	if gotBody["from"] != "2025-07-07T00:00:00.000Z" || gotBody["to"] != "2025-07-07T23:59:59.999Z" {
		t.Fatalf("range = %v..%v, want UTC millisecond timestamps", gotBody["from"], gotBody["to"])
	}
	if gotBody["locations_box_id"] != float64(12) || gotBody["boxes_id"] != float64(34) {
		t.Fatalf("box ids = %v/%v, want 12/34", gotBody["locations_box_id"], gotBody["boxes_id"])
	}
}

func TestBookLesson_ExtrasPassThrough(t *testing.T) {
	t.Parallel()

	var bodies []map[string]any
	var mu sync.Mutex
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		_, _ = io.WriteString(w, `{"data":{"id":99}}`)
	})
	ctx := context.Background()
	tokens := TokenPair{AccessToken: "A", RefreshToken: "R"}

	if _, err := c.BookLesson(ctx, tokens, BookingRequest{ScheduleID: 5, MembershipUserID: 6}); err != nil {
		t.Fatalf("BookLesson returned error: %v", err)
	}
	if _, err := c.BookLesson(ctx, tokens, BookingRequest{ScheduleID: 5, MembershipUserID: 6, Extras: []byte(`{"spot":3}`)}); err != nil {
		t.Fatalf("BookLesson returned error: %v", err)
	}

	first := bodies[0]
	extras, present := first["extras"]
	if !present || extras != nil {
		t.Fatalf("extras = %v (present=%v), want explicit null", extras, present)
	}
	if first["schedule_id"] != float64(5) || first["membership_user_id"] != float64(6) {
		t.Fatalf("body = %v, want schedule_id=5 membership_user_id=6", first)
	}
	spot, ok := bodies[1]["extras"].(map[string]any)
	if !ok || spot["spot"] != float64(3) {
		t.Fatalf("extras = %v, want {\"spot\":3}", bodies[1]["extras"])
	}
}

func TestCancelBooking_DefaultLateCancelIsFalse(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	_, err := c.CancelBooking(context.Background(), TokenPair{AccessToken: "A"}, CancelRequest{ScheduleID: 10, ScheduleUserID: 20})
	if err != nil {
		t.Fatalf("CancelBooking returned error: %v", err)
	}
	late, present := gotBody["late_cancel"]
	if !present || late != false {
		t.Fatalf("late_cancel = %v (present=%v), want false", late, present)
	}
	if gotBody["schedule_id"] != float64(10) || gotBody["schedule_user_id"] != float64(20) {
		t.Fatalf("body = %v, want schedule_id=10 schedule_user_id=20", gotBody)
	}
}

func TestDecodeErrorAndTransportError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not-json")
	})

	_, err := c.Profile(context.Background(), TokenPair{AccessToken: "A"})
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Profile error = %v, want decode response error", err)
	}

	_, err = c.Login(context.Background(), Credentials{})
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Login error = %v, want decode response error", err)
	}

	offline, err := NewClient("http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = offline.CancelBooking(context.Background(), TokenPair{}, CancelRequest{})
	if err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("CancelBooking error = %v, want execute request error", err)
	}
	if IsRejected(err, 0) {
		t.Fatalf("transport failure should not look like a rejection")
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if _, err := c.Login(context.Background(), Credentials{}); err == nil {
		t.Fatalf("Login on nil client returned nil error")
	}
	if _, err := c.BookLesson(context.Background(), TokenPair{}, BookingRequest{}); err == nil {
		t.Fatalf("BookLesson on nil client returned nil error")
	}
}

func TestWithTimeout_LeavesSuppliedClientUntouched(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	for _, opts := range [][]Option{
		{WithHTTPClient(shared), WithTimeout(3 * time.Second)},
		{WithTimeout(3 * time.Second), WithHTTPClient(shared)},
	} {
		c, err := NewClient("", opts...)
		if err != nil {
			t.Fatalf("NewClient returned error: %v", err)
		}
		if shared.Timeout != time.Minute {
			t.Fatalf("shared client timeout = %v, want unchanged 1m", shared.Timeout)
		}
		if c.http == shared || c.http.Timeout != 3*time.Second {
			t.Fatalf("client timeout = %v, want 3s on a copy", c.http.Timeout)
		}
	}

	c, err := NewClient("", WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if c.http.Timeout != 5*time.Second {
		t.Fatalf("default client timeout = %v, want 5s", c.http.Timeout)
	}
}
