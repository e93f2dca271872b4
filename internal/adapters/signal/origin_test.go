package signal

import (
	"net/http/httptest"
	"testing"

	"github.com/dkeye/Parley/internal/core"
	"github.com/stretchr/testify/require"
)

func TestOriginChecker(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no header", []string{"https://chat.example"}, "", "api.example", true},
		{"listed", []string{"https://Chat.Example"}, "https://chat.example", "api.example", true},
		{"not listed", []string{"https://chat.example"}, "https://evil.example", "api.example", false},
		{"wildcard", []string{"*"}, "https://anything.example", "api.example", true},
		{"same host default", nil, "http://localhost:8080", "localhost:8080", true},
		{"cross host default", nil, "http://evil.example", "localhost:8080", false},
		{"garbage header", []string{"https://chat.example"}, "::::", "api.example", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := newOriginChecker(tc.allowed)
			r := httptest.NewRequest("GET", "http://"+tc.host+"/ws/rooms/lobby", nil)
			r.Host = tc.host
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			require.Equal(t, tc.want, check(r))
		})
	}
}

func TestWsSignalConn_TrySend(t *testing.T) {
	req := require.New(t)
	c := &WsSignalConn{send: make(chan core.Frame, 1)}

	req.NoError(c.TrySend(core.Frame("a")))
	req.ErrorIs(c.TrySend(core.Frame("b")), core.ErrBackpressure)

	c.closed = true
	req.ErrorIs(c.TrySend(core.Frame("c")), core.ErrConnClosed)
}
