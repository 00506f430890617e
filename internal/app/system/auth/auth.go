package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session values                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	userIDKey     = "user_id"
	resetEmailKey = "reset_email"
)

// SessionUser is the approved profile injected into r.Context() by
// LoadSessionUser. It is rebuilt from the database on every request.
type SessionUser struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Role      string
}

func (u *SessionUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name, else the e-mail, else the generic label.
func (u *SessionUser) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	if u.Email != "" {
		return u.Email
	}
	return notify.MsgGenericUser
}

// UserFetcher returns the current profile for a session's user id, or nil
// when the profile is missing or not approved.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the cookie store. secure marks cookies Secure
// and switches SameSite to None for cross-site HTTPS; over plain http in
// dev it must be false so the browser keeps the cookie.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "experimenthub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	// Keeps the securecookie max-age check in step with the cookie's.
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetFetcher installs the profile loader. Until it is set every session is
// treated as invalid.
func (sm *SessionManager) SetFetcher(f UserFetcher) {
	sm.fetcher = f
}

// session returns the request's session. A cookie that fails to decode
// (rotated key, tampering) yields a fresh session; the store already
// does that, this only decides how loudly to log it.
func (sm *SessionManager) session(r *http.Request) *sessions.Session {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			sm.log.Debug("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			sm.log.Warn("session store error, using fresh session", zap.Error(err))
		}
	}
	return sess
}

// SignIn stores userID in a fresh session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess := sm.session(r)
	sess.Values = map[interface{}]interface{}{userIDKey: userID}
	sess.Options.MaxAge = sm.store.Options.MaxAge
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := sm.session(r)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// MarkResetRequested remembers in this browser's session the address it
// last asked a password reset for.
func (sm *SessionManager) MarkResetRequested(w http.ResponseWriter, r *http.Request, email string) error {
	sess := sm.session(r)
	sess.Values[resetEmailKey] = email
	return sess.Save(r, w)
}

// ResetRequested is the address recorded by MarkResetRequested, or "".
func (sm *SessionManager) ResetRequested(r *http.Request) string {
	email, _ := sm.session(r).Values[resetEmailKey].(string)
	return email
}

// SessionUserID is the user id stored in the cookie, without checking the
// profile.
func (sm *SessionManager) SessionUserID(r *http.Request) string {
	id, _ := sm.session(r).Values[userIDKey].(string)
	return id
}

// LoadSessionUser resolves the session's user id through the fetcher and
// injects the result. A session whose profile is gone or not approved is
// destroyed so the client falls back to the sign-in screen.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sm.SessionUserID(r)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		var u *SessionUser
		if sm.fetcher != nil {
			u = sm.fetcher.FetchUser(r.Context(), id)
		}
		if u == nil {
			sm.log.Info("session user rejected; clearing session", zap.String("user_id", id))
			if err := sm.SignOut(w, r); err != nil {
				sm.log.Warn("clear session failed", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn lets the request through only when LoadSessionUser found
// an approved profile.
//   - HTMX: HX-Redirect to /login?return=...
//   - HTML: 303 to /login?return=...
//   - API:  401 with a JSON redirect hint to /login
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

// RequireRole is RequireSignedIn plus a case-insensitive role check.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				unauthorized(w, r)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				if r.Header.Get("HX-Request") == "true" {
					w.Header().Set("HX-Redirect", "/forbidden")
					w.WriteHeader(http.StatusForbidden)
					return
				}
				if wantsHTML(r) {
					http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
					return
				}
				notify.WriteJSON(w, http.StatusForbidden, notify.Response{
					Notice: notify.Warn(notify.MsgExperimentForbidden).Ptr(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	dest := "/login?return=" + url.QueryEscape(r.URL.RequestURI())

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	notify.WriteJSON(w, http.StatusUnauthorized, notify.Response{Redirect: "/login"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context helpers                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u the way LoadSessionUser does.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
