package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes caps JSON request bodies. File content goes through the
// multipart upload path, never through JSON, so 1MB is generous.
const maxBodyBytes = 1 << 20

// ParseJSON decodes JSON from the request body into dest, limiting the
// body size. The writer is required so MaxBytesReader can answer 413.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
