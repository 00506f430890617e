package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// Researcher returns an approved researcher with a fresh id.
func Researcher() TestUser {
	return TestUser{
		ID:        primitive.NewObjectID().Hex(),
		FirstName: "Dana",
		LastName:  "Levi",
		Email:     "dana@test.com",
		Role:      "חוקר",
	}
}

// FromModel mirrors a stored user.
func FromModel(u models.User) TestUser {
	return TestUser{
		ID:        u.ID.Hex(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// WithUser adds a user to the request context, bypassing the session
// middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body io.Reader = http.NoBody
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// Envelope decodes the common JSON response. Data is left raw so the
// caller can decode it into the feature's payload.
type Envelope struct {
	Notice   *notify.Notice  `json:"notice"`
	Redirect string          `json:"redirect"`
	Data     json.RawMessage `json:"data"`
}

// DecodeEnvelope decodes the body into an Envelope, failing the test on
// malformed JSON.
func (r *ResponseRecorder) DecodeEnvelope(t *testing.T) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, r.Body.String())
	}
	return env
}

// DecodeData decodes the envelope's data into v.
func (e Envelope) DecodeData(t *testing.T, v any) {
	t.Helper()
	if len(e.Data) == 0 {
		t.Fatal("response has no data")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

// AssertNotice checks level and, when msg is non-empty, the message.
func (e Envelope) AssertNotice(t *testing.T, level notify.Level, msg string) {
	t.Helper()
	if e.Notice == nil {
		t.Fatalf("expected a %s notice, got none", level)
	}
	if e.Notice.Level != level {
		t.Errorf("notice level: got %q, want %q (%s)", e.Notice.Level, level, e.Notice.Message)
	}
	if msg != "" && e.Notice.Message != msg {
		t.Errorf("notice message: got %q, want %q", e.Notice.Message, msg)
	}
}
