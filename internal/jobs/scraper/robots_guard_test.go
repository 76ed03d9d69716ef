package scraper

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckRobotsAllowance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	t.Run("allowed path", func(t *testing.T) {
		result, err := CheckRobotsAllowance(server.URL+"/lists/socks5.html", 2*time.Second)
		if err != nil {
			t.Fatalf("CheckRobotsAllowance returned error: %v", err)
		}
		if !result.RobotsFound || !result.Allowed {
			t.Fatalf("CheckRobotsAllowance returned %+v, want allowed", result)
		}
	})

	t.Run("disallowed path", func(t *testing.T) {
		result, err := CheckRobotsAllowance(server.URL+"/private/socks5.html", 2*time.Second)
		if err != nil {
			t.Fatalf("CheckRobotsAllowance returned error: %v", err)
		}
		if !result.RobotsFound || result.Allowed {
			t.Fatalf("CheckRobotsAllowance returned %+v, want disallowed", result)
		}
	})
}

func TestCheckRobotsAllowanceFailsOpen(t *testing.T) {
	t.Run("no robots file", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(server.Close)

		result, err := CheckRobotsAllowance(server.URL+"/list.html", 2*time.Second)
		if err != nil {
			t.Fatalf("CheckRobotsAllowance returned error: %v", err)
		}
		if result.RobotsFound || !result.Allowed {
			t.Fatalf("CheckRobotsAllowance returned %+v, want fail-open", result)
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		result, err := CheckRobotsAllowance("http://127.0.0.1:1/list.html", 500*time.Millisecond)
		if err == nil {
			t.Fatal("CheckRobotsAllowance reported no error for unreachable host")
		}
		if !result.Allowed {
			t.Fatal("CheckRobotsAllowance must fail open on fetch errors")
		}
	})
}
