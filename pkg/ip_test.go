package pkg

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPIsLocal(t *testing.T) {
	assert.True(t, IPIsLocal("127.0.0.1:8080"))
	assert.True(t, IPIsLocal("172.17.0.1:45978"))
	assert.False(t, IPIsLocal("8.8.8.8:443"))
	assert.False(t, IPIsLocal("192.168.1.10:80"))
}

func TestReadUserIP(t *testing.T) {
	testCases := []struct {
		name       string
		realIp     string
		forwardFor string
		remoteAddr string
		expected   string
		expectErr  bool
	}{
		{
			name:     "x-real-ip set",
			realIp:   "99.83.12.4",
			expected: "99.83.12.4",
		},
		{
			name:       "x-forwarded-for fallback",
			forwardFor: "99.83.12.5",
			expected:   "99.83.12.5",
		},
		{
			name:       "remote addr with port",
			remoteAddr: "99.83.12.6:33412",
			expected:   "99.83.12.6",
		},
		{
			name:       "localhost development",
			remoteAddr: "127.0.0.1:8080",
			expected:   "localhost",
		},
		{
			name:       "invalid addr",
			remoteAddr: "not-an-ip",
			expectErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest("GET", "/", nil)
			require.NoError(t, err)
			if tc.realIp != "" {
				req.Header.Set("X-Real-Ip", tc.realIp)
			}
			if tc.forwardFor != "" {
				req.Header.Set("X-Forwarded-For", tc.forwardFor)
			}
			req.RemoteAddr = tc.remoteAddr

			ip, err := ReadUserIP(req)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ip)
		})
	}
}
