// Package httputil holds the response writers and middleware shared by the
// feed, archive and dashboard handlers.
package httputil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// JSON writes data as-is. The public incident feed uses it to keep its flat
// wire shape; firemap's own endpoints use Success and Error.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, data)
}

// Success writes {"data": ...}.
func Success(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

// Error writes {"error": {"message": ...}}.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": message},
	})
}

// Text writes a plain text body, used by the probes.
func Text(w http.ResponseWriter, statusCode int, text string) {
	write(w, statusCode, "text/plain; charset=utf-8", []byte(text))
}

// HTML writes a rendered page.
func HTML(w http.ResponseWriter, statusCode int, body []byte) {
	write(w, statusCode, "text/html; charset=utf-8", body)
}

// MaxAge lets clients and proxies reuse a response for d. Call before writing.
// A non-positive d marks the response as not storable.
func MaxAge(w http.ResponseWriter, d time.Duration) {
	if d <= 0 {
		NoStore(w)
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(d.Seconds())))
}

// NoStore marks a response that changes with every refresh.
func NoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "status", status, "error", err)
	}
}

func write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write response", "status", status, "error", err)
	}
}
