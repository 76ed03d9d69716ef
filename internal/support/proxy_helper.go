package support

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"shrike/internal/domain"
)

// ParseCandidate normalizes one raw candidate string into a proxy.
// Accepted shapes: host:port, scheme://host:port, user:pass@host:port
// and the host:port:user:pass form some lists use.
func ParseCandidate(raw string) (domain.Proxy, error) {
	candidate := strings.TrimSpace(raw)
	if idx := strings.Index(candidate, "://"); idx >= 0 {
		candidate = candidate[idx+3:]
	}

	var username, password string
	if at := strings.LastIndexByte(candidate, '@'); at >= 0 {
		creds := candidate[:at]
		candidate = candidate[at+1:]
		if colon := strings.IndexByte(creds, ':'); colon >= 0 {
			username = creds[:colon]
			password = creds[colon+1:]
		} else {
			username = creds
		}
	}

	var proxy domain.Proxy

	split := strings.Split(candidate, ":")
	switch len(split) {
	case 2:
	case 4:
		if username == "" && password == "" {
			username = split[2]
			password = split[3]
		}
	default:
		return proxy, fmt.Errorf("candidate %q is not host:port shaped", raw)
	}

	if err := proxy.SetIP(split[0]); err != nil {
		return proxy, fmt.Errorf("candidate %q: %w", raw, err)
	}

	port, err := strconv.Atoi(split[1])
	if err != nil || port < 1 || port > 65535 {
		return proxy, fmt.Errorf("candidate %q has no valid port", raw)
	}

	proxy.Port = uint16(port)
	proxy.Username = username
	proxy.Password = password
	proxy.Raw = strings.TrimSpace(raw)

	return proxy, nil
}

// ParseCandidates parses every raw candidate, dropping malformed ones.
// The second return value is the number of dropped candidates.
func ParseCandidates(raws []string) ([]domain.Proxy, int) {
	proxies := make([]domain.Proxy, 0, len(raws))
	dropped := 0

	for _, raw := range raws {
		proxy, err := ParseCandidate(raw)
		if err != nil {
			dropped++
			continue
		}
		proxies = append(proxies, proxy)
	}

	return proxies, dropped
}

// DeduplicateProxies keeps the first occurrence of every identity and
// preserves discovery order.
func DeduplicateProxies(proxies []domain.Proxy) []domain.Proxy {
	seen := make(map[string]struct{}, len(proxies))
	unique := make([]domain.Proxy, 0, len(proxies))

	for _, proxy := range proxies {
		identity := proxy.GetIdentity()
		if _, ok := seen[identity]; ok {
			continue
		}
		seen[identity] = struct{}{}
		unique = append(unique, proxy)
	}

	return unique
}

var (
	endpointRegex = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}:\d{1,5}\b`)
	tagRegex      = regexp.MustCompile(`<[^>]+>`)
	colonRunRegex = regexp.MustCompile(`:{2,}`)
)

// ExtractEndpoints pulls ip:port pairs out of page HTML, where address
// and port often sit in adjacent table cells.
func ExtractEndpoints(rawHTML string) []string {
	normalized := strings.NewReplacer(
		"&colon;", ":",
		"&nbsp;", " ",
		"</td><td>", ":",
		"<td>", ":",
		"</td>", ":",
	).Replace(rawHTML)
	normalized = colonRunRegex.ReplaceAllString(normalized, ":")

	text := tagRegex.ReplaceAllString(html.UnescapeString(normalized), "")

	return endpointRegex.FindAllString(text, -1)
}
