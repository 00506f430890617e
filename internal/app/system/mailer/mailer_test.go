package mailer

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBuildResetEmail(t *testing.T) {
	e := BuildResetEmail(ResetEmailData{
		SiteName:  "מיזם ח\"ץ",
		Name:      "דנה",
		ResetLink: "https://example.com/reset-password?token=abc",
		ExpiresIn: "60 דקות",
	})
	if e.To != "" {
		t.Errorf("To should be left for the caller, got %q", e.To)
	}
	if !strings.Contains(e.TextBody, "https://example.com/reset-password?token=abc") {
		t.Error("text body missing reset link")
	}
	if !strings.Contains(e.TextBody, "שלום דנה") {
		t.Error("text body missing greeting")
	}
	// html/template escapes & in attributes; the link has none.
	if !strings.Contains(e.HTMLBody, `href="https://example.com/reset-password?token=abc"`) {
		t.Error("html body missing reset link")
	}
}

func TestSend_UsesRelayAndBuildsMultipart(t *testing.T) {
	m := New(Config{Host: "localhost", Port: 1025, From: "noreply@example.com", FromName: "Hub"}, zap.NewNop())

	var gotAddr string
	var gotAuth smtp.Auth
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, msg
		return nil
	}

	err := m.Send(Email{To: "dana@example.com", Subject: "שלום", TextBody: "plain", HTMLBody: "<p>html</p>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "localhost:1025" {
		t.Errorf("addr: got %q", gotAddr)
	}
	if gotAuth != nil {
		t.Error("expected no auth without a user")
	}
	if len(gotTo) != 1 || gotTo[0] != "dana@example.com" {
		t.Errorf("to: got %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{"multipart/alternative", "text/plain", "text/html", "Subject: =?utf-8?q?"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSend_PlainOnly(t *testing.T) {
	m := New(Config{Host: "localhost", Port: 1025, From: "noreply@example.com"}, zap.NewNop())
	var gotMsg []byte
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	}
	if err := m.Send(Email{To: "dana@example.com", Subject: "s", TextBody: "body"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if strings.Contains(string(gotMsg), "multipart") {
		t.Error("plain message should not be multipart")
	}
}

func TestSend_Errors(t *testing.T) {
	m := New(Config{Host: "localhost", Port: 1025, From: "noreply@example.com"}, zap.NewNop())
	if err := m.Send(Email{}); err == nil {
		t.Error("expected error for empty recipient")
	}
	if err := m.Send(Email{To: "not an address"}); err == nil {
		t.Error("expected error for malformed recipient")
	}

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	if err := m.Send(Email{To: "dana@example.com", TextBody: "x"}); err == nil || !strings.Contains(err.Error(), "refused") {
		t.Errorf("expected relay error to surface, got %v", err)
	}

	unconfigured := New(Config{}, zap.NewNop())
	if err := unconfigured.Send(Email{To: "dana@example.com"}); err == nil {
		t.Error("expected error without smtp host")
	}
}

func TestBuild_DateHeader(t *testing.T) {
	m := New(Config{Host: "h", From: "a@b.co"}, zap.NewNop())
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	msg, err := m.build(Email{To: "x@y.co", TextBody: "t"}, now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(string(msg), "Date: "+now.Format(time.RFC1123Z)) {
		t.Error("missing Date header")
	}
}
