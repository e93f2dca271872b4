package signal

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// newOriginChecker builds the upgrader's CheckOrigin. With no configured
// origins only same-host browser pages are accepted; "*" accepts any.
// Requests without an Origin header come from non-browser clients and are
// always accepted.
func newOriginChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
			continue
		}
		n, ok := normalizeOrigin(o)
		if !ok {
			log.Warn().Str("module", "signal").Str("origin", o).Msg("ignoring invalid origin in configuration")
			continue
		}
		allowed[n] = struct{}{}
	}

	return func(r *http.Request) bool {
		header := r.Header.Get("Origin")
		if header == "" || allowAll {
			return true
		}
		origin, ok := normalizeOrigin(header)
		if !ok {
			return false
		}
		if len(allowed) == 0 {
			u, _ := url.Parse(origin)
			return strings.EqualFold(u.Host, r.Host)
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		log.Warn().Str("module", "signal").Str("origin", header).Msg("blocked websocket from disallowed origin")
		return false
	}
}
