package judge

import (
	"encoding/json"
	"net"
	"strings"
)

// ExtractIP parses an echo response body into a strict IPv4 literal.
// Bare-text bodies must contain nothing but the address; JSON bodies
// carry it in an ip or origin field. Anything else, including IPv6 and
// HTML error pages, is rejected.
func ExtractIP(body string) (string, bool) {
	value := strings.TrimSpace(body)

	if strings.HasPrefix(value, "{") {
		var payload struct {
			IP     string `json:"ip"`
			Origin string `json:"origin"`
		}
		if err := json.Unmarshal([]byte(value), &payload); err != nil {
			return "", false
		}
		value = payload.IP
		if value == "" {
			value = payload.Origin
		}
	}

	// httpbin reports chained relays as "client, relay"; the first entry
	// is the exit address.
	if comma := strings.IndexByte(value, ','); comma >= 0 {
		value = value[:comma]
	}
	value = strings.TrimSpace(value)

	parsed := net.ParseIP(value)
	if parsed == nil {
		return "", false
	}
	ipv4 := parsed.To4()
	if ipv4 == nil {
		return "", false
	}

	return ipv4.String(), true
}
