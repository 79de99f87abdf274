package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header passes", []string{"https://app.example.com"}, "", true},
		{"listed origin passes", []string{"https://app.example.com"}, "https://app.example.com", true},
		{"case-insensitive match", []string{"https://App.Example.com"}, "https://app.example.com", true},
		{"foreign origin rejected", []string{"https://app.example.com"}, "https://evil.example", false},
		{"wildcard passes anything", []string{"*"}, "https://evil.example", true},
		{"empty allowlist rejects browsers", nil, "https://app.example.com", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			check := originAllowed(tc.allowed)
			req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if got := check(req); got != tc.want {
				t.Fatalf("originAllowed(%v) with origin %q = %v, want %v", tc.allowed, tc.origin, got, tc.want)
			}
		})
	}
}
