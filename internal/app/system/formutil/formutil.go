// Package formutil decodes request bodies for the JSON API.
//
// The browser client posts JSON. Unknown fields are ignored so that older
// clients keep working when a field is dropped; a body over the size
// limit, a syntax error or trailing data is rejected.
//
//	var in loginRequest
//	if err := formutil.DecodeJSON(w, r, limits.MaxAuthBody, &in); err != nil {
//		h.ErrLog.LogBadRequest(w, r, "decode login body", err, notify.MsgBadRequest, "")
//		return
//	}
package formutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrEmptyBody is returned when the request has no body at all.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON reads at most maxBytes from r.Body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("unsupported content type %q", ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("request body exceeds %d bytes", tooBig.Limit)
		}
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("request body has trailing data")
	}
	return nil
}
