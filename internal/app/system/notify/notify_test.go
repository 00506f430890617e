package notify

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{180, "3:00"},
		{125, "2:05"},
		{60, "1:00"},
		{59, "59"},
		{1, "1"},
		{0, "0"},
		{-4, "0"},
	}
	for _, tt := range tests {
		if got := FormatCountdown(tt.in); got != tt.want {
			t.Errorf("FormatCountdown(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFailWith_AppendsUnderlyingMessage(t *testing.T) {
	n := FailWith(MsgExperimentSaveFail, errors.New("connection reset"))
	if n.Level != Error {
		t.Errorf("level: got %q, want %q", n.Level, Error)
	}
	want := MsgExperimentSaveFail + ": connection reset"
	if n.Message != want {
		t.Errorf("message: got %q, want %q", n.Message, want)
	}
	if n.DurationMS != 3000 {
		t.Errorf("duration: got %d, want 3000", n.DurationMS)
	}
}

func TestWithDuration(t *testing.T) {
	n := Warn("x").WithDuration(LongDuration)
	if n.DurationMS != 5000 {
		t.Errorf("duration: got %d, want 5000", n.DurationMS)
	}
	if Warn("x").WithDuration(500*time.Millisecond).DurationMS != 500 {
		t.Error("expected 500ms")
	}
}

func TestMessageLookups_FallBack(t *testing.T) {
	if got := LoginMessage(CodeWrongPassword); got != "סיסמה שגויה" {
		t.Errorf("LoginMessage(wrong-password) = %q", got)
	}
	if got := LoginMessage(CodeEmailInUse); got != MsgLoginGeneric {
		t.Errorf("unmapped login code should fall back, got %q", got)
	}
	if got := RegisterMessage(CodeUserNotFound); got != MsgRegisterGeneric {
		t.Errorf("unmapped register code should fall back, got %q", got)
	}
	if got := ResetMessage("something-else"); got != MsgResetGeneric {
		t.Errorf("unmapped reset code should fall back, got %q", got)
	}
}

func TestWrite_EncodesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, http.StatusConflict, Warn(MsgPartnerExists))

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Notice == nil || resp.Notice.Message != MsgPartnerExists {
		t.Errorf("notice: got %+v", resp.Notice)
	}
}

func TestWriteJSON_UnencodableValueIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, Response{Data: math.NaN()})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") == "application/json" {
		t.Error("failed encode must not be labelled as JSON")
	}
}
