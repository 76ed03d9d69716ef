package support

import (
	"testing"

	"shrike/internal/domain"
)

func TestParseCandidate(t *testing.T) {
	t.Run("bare endpoint", func(t *testing.T) {
		proxy, err := ParseCandidate("1.1.1.1:1080")
		if err != nil {
			t.Fatalf("ParseCandidate returned error: %v", err)
		}
		if got := proxy.GetFullProxy(); got != "1.1.1.1:1080" {
			t.Fatalf("parsed proxy was %s, want 1.1.1.1:1080", got)
		}
		if proxy.HasAuth() {
			t.Fatal("expected no auth credentials")
		}
	})

	t.Run("scheme prefix stripped", func(t *testing.T) {
		proxy, err := ParseCandidate("socks5://2.2.2.2:9050")
		if err != nil {
			t.Fatalf("ParseCandidate returned error: %v", err)
		}
		if got := proxy.GetIdentity(); got != "2.2.2.2:9050" {
			t.Fatalf("identity was %s, want 2.2.2.2:9050", got)
		}
	})

	t.Run("credentials retained", func(t *testing.T) {
		proxy, err := ParseCandidate("user:pass@3.3.3.3:1080")
		if err != nil {
			t.Fatalf("ParseCandidate returned error: %v", err)
		}
		if proxy.Username != "user" || proxy.Password != "pass" {
			t.Fatalf("unexpected credentials: %s:%s", proxy.Username, proxy.Password)
		}
		if got := proxy.GetIdentity(); got != "user:pass@3.3.3.3:1080" {
			t.Fatalf("identity was %s, want user:pass@3.3.3.3:1080", got)
		}
	})

	t.Run("four part form", func(t *testing.T) {
		proxy, err := ParseCandidate("4.4.4.4:1080:user:pass")
		if err != nil {
			t.Fatalf("ParseCandidate returned error: %v", err)
		}
		if proxy.Username != "user" || proxy.Password != "pass" {
			t.Fatalf("unexpected credentials: %s:%s", proxy.Username, proxy.Password)
		}
	})

	t.Run("malformed candidates rejected", func(t *testing.T) {
		for _, raw := range []string{"", "no-port", "host.example:1080", "1.1.1.1:0", "1.1.1.1:70000", "[::1]:1080"} {
			if _, err := ParseCandidate(raw); err == nil {
				t.Fatalf("expected error for %q, got nil", raw)
			}
		}
	})
}

func TestParseCandidatesCountsDropped(t *testing.T) {
	raws := []string{"1.1.1.1:1080", "garbage", "2.2.2.2:1080", "3.3.3.3:bad"}

	proxies, dropped := ParseCandidates(raws)
	if len(proxies) != 2 {
		t.Fatalf("ParseCandidates returned %d proxies, want 2", len(proxies))
	}
	if dropped != 2 {
		t.Fatalf("ParseCandidates dropped %d candidates, want 2", dropped)
	}
}

func TestDeduplicateProxies(t *testing.T) {
	raws := []string{"1.2.3.4:1080", "socks5://1.2.3.4:1080", "5.6.7.8:1080", "1.2.3.4:1080"}
	proxies, _ := ParseCandidates(raws)

	unique := DeduplicateProxies(proxies)
	if len(unique) != 2 {
		t.Fatalf("DeduplicateProxies returned %d proxies, want 2", len(unique))
	}
	if got := unique[0].GetFullProxy(); got != "1.2.3.4:1080" {
		t.Fatalf("first proxy was %s, want 1.2.3.4:1080", got)
	}
	if got := unique[1].GetFullProxy(); got != "5.6.7.8:1080" {
		t.Fatalf("second proxy was %s, want 5.6.7.8:1080", got)
	}

	seen := make(map[string]struct{}, len(unique))
	for _, proxy := range unique {
		if _, ok := seen[proxy.GetIdentity()]; ok {
			t.Fatalf("duplicate identity %s survived deduplication", proxy.GetIdentity())
		}
		seen[proxy.GetIdentity()] = struct{}{}
	}
}

func TestDeduplicateProxiesKeepsDistinctCredentials(t *testing.T) {
	withAuth := domain.Proxy{Port: 1080, Username: "user", Password: "pass"}
	if err := withAuth.SetIP("1.2.3.4"); err != nil {
		t.Fatalf("SetIP returned error: %v", err)
	}
	bare := domain.Proxy{Port: 1080}
	if err := bare.SetIP("1.2.3.4"); err != nil {
		t.Fatalf("SetIP returned error: %v", err)
	}

	unique := DeduplicateProxies([]domain.Proxy{withAuth, bare})
	if len(unique) != 2 {
		t.Fatalf("DeduplicateProxies merged distinct credentials, got %d proxies", len(unique))
	}
}

func TestExtractEndpoints(t *testing.T) {
	rawHTML := `<table><tr><td>1.2.3.4</td><td>1080</td></tr><tr><td>5.6.7.8</td><td>9050</td></tr></table>`

	endpoints := ExtractEndpoints(rawHTML)
	if len(endpoints) != 2 {
		t.Fatalf("ExtractEndpoints returned %d endpoints, want 2", len(endpoints))
	}
	if endpoints[0] != "1.2.3.4:1080" || endpoints[1] != "5.6.7.8:9050" {
		t.Fatalf("unexpected endpoints: %v", endpoints)
	}
}
