package logout_test

import (
	"net/http"
	"testing"

	"github.com/volcani/experimenthub/internal/app/features/logout"
	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *logout.Handler {
	t.Helper()
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 0, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sessionMgr, logger)
}

func expiredCookie(rec *testutil.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestHandleLogout_ClearsSession(t *testing.T) {
	h := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.HandleLogout(rec, testutil.NewAuthenticatedRequest("POST", "/logout", testutil.Researcher()))

	rec.AssertStatus(t, http.StatusOK)
	env := rec.DecodeEnvelope(t)
	env.AssertNotice(t, notify.Info, notify.MsgLogoutDone)
	if env.Redirect != "/login" {
		t.Errorf("redirect: got %q, want /login", env.Redirect)
	}
	if !expiredCookie(rec) {
		t.Error("expected an expired session cookie")
	}
}

func TestHandleLogout_HTMX(t *testing.T) {
	h := newTestHandler(t)

	req := testutil.NewRequest("POST", "/logout")
	req.Header.Set("HX-Request", "true")
	rec := testutil.NewRecorder()
	h.HandleLogout(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect: got %q, want /login", got)
	}
}

func TestHandleLogout_WithoutSession(t *testing.T) {
	h := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.HandleLogout(rec, testutil.NewRequest("POST", "/logout"))

	rec.AssertStatus(t, http.StatusOK)
	if !expiredCookie(rec) {
		t.Error("logout without a session still expires the cookie")
	}
}
