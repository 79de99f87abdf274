// Package json holds the request/response helpers the handlers share.
package json

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const maxBodySize = 1 << 20 // 1 MiB

// Read decodes a JSON request body into dst, rejecting unknown fields
// and oversized bodies.
func Read(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
