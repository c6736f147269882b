package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{name: "remote addr", remoteAddr: "83.12.53.65:2145", expected: "83.12.53.65"},
		{name: "remote addr ipv6", remoteAddr: "[::1]:8080", expected: "::1"},
		{name: "real ip", remoteAddr: "172.20.0.1:60102", headers: map[string]string{"X-Real-Ip": "111.12.56.65"}, expected: "111.12.56.65"},
		{
			name:       "forwarded chain",
			remoteAddr: "172.20.0.1:60102",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"},
			expected:   "203.0.113.7",
		},
		{
			name:       "real ip wins",
			remoteAddr: "172.20.0.1:60102",
			headers:    map[string]string{"X-Real-Ip": "198.51.100.1:443", "X-Forwarded-For": "203.0.113.7"},
			expected:   "198.51.100.1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/health", nil)
			r.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.expected, ClientIP(r))
		})
	}
}
