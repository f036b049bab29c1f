package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
)

const encodeFailureBody = `{"error":"Internal Server Error","message":"failed to encode response"}` + "\n"

// WriteJSON encodes v before touching w, so a value that cannot be encoded
// (a NaN aggregate, say) becomes a 500 instead of a truncated 200.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("failed to encode JSON", "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(encodeFailureBody)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}
