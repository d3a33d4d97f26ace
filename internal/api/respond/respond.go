// Package respond writes the status API's JSON bodies and error envelopes.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/apptwatch/apptwatch/internal/cache"
)

// ErrorBody describes one failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse is the envelope every error is sent in.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Cached writes a cached view. X-Cache says whether it came from the cache;
// Last-Modified is when the body was encoded.
func Cached(w http.ResponseWriter, e cache.Entry, maxAge time.Duration, hit bool) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("ETag", e.ETag)
	h.Set("Last-Modified", e.StoredAt.UTC().Format(http.TimeFormat))
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d, must-revalidate", int(maxAge.Seconds())))
	h.Set("Vary", "Accept-Encoding")
	if hit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(e.Data)
}

// NotModified answers a conditional request whose ETag still matches.
func NotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// Error sends an error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	ErrorDetail(w, status, code, message, "")
}

// ErrorDetail sends an error envelope with detail, usually the wrapped cause.
func ErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Detail: detail}})
}

// JSON encodes v uncached.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
