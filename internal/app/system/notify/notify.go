// Package notify builds the transient notices the browser shows as toasts.
//
// Handlers never write raw error strings to the client; they pick a message
// from the catalogue in messages.go and wrap it in a Notice with a level and
// a display duration.
package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Level is the visual severity of a notice.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Warning Level = "warning"
	Info    Level = "info"
)

// Display durations.
const (
	DefaultDuration = 3 * time.Second
	LongDuration    = 5 * time.Second
	ShortDuration   = 2 * time.Second
)

// Notice is what the client renders.
type Notice struct {
	Level      Level  `json:"level"`
	Message    string `json:"message"`
	DurationMS int64  `json:"duration_ms"`
}

// New returns a notice with the default duration.
func New(level Level, msg string) Notice {
	return Notice{Level: level, Message: msg, DurationMS: DefaultDuration.Milliseconds()}
}

// WithDuration returns a copy of n shown for d.
func (n Notice) WithDuration(d time.Duration) Notice {
	n.DurationMS = d.Milliseconds()
	return n
}

// Ptr returns a pointer to a copy of n for use in Response.
func (n Notice) Ptr() *Notice { return &n }

func Successf(format string, args ...any) Notice { return New(Success, fmt.Sprintf(format, args...)) }
func Warn(msg string) Notice                    { return New(Warning, msg) }
func Fail(msg string) Notice                    { return New(Error, msg) }

// FailWith appends the underlying error text so a user can report it.
func FailWith(msg string, err error) Notice {
	if err == nil {
		return Fail(msg)
	}
	return Fail(msg + ": " + err.Error())
}

// Response is the common JSON envelope. Data carries the feature payload;
// Redirect tells the client where to navigate next.
type Response struct {
	Notice   *Notice `json:"notice,omitempty"`
	Redirect string  `json:"redirect,omitempty"`
	Data     any     `json:"data,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// Write sends a bare notice.
func Write(w http.ResponseWriter, status int, n Notice) {
	WriteJSON(w, status, Response{Notice: &n})
}

// FormatCountdown renders a remaining-seconds value the way the resend
// button shows it: "m:ss" from one minute up, plain seconds below.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	m, s := seconds/60, seconds%60
	if m > 0 {
		return fmt.Sprintf("%d:%02d", m, s)
	}
	return fmt.Sprintf("%d", s)
}
