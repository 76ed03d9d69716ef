package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseSourceText(t *testing.T) {
	body := strings.Join([]string{
		"1.2.3.4:1080",
		"",
		"# refreshed hourly",
		"  5.6.7.8:9050  ",
		"9.9.9.9:1080 US 250ms elite",
		"\r",
	}, "\n")

	candidates := ParseSourceText(body)

	want := []string{"1.2.3.4:1080", "5.6.7.8:9050", "9.9.9.9:1080"}
	if !reflect.DeepEqual(candidates, want) {
		t.Fatalf("ParseSourceText returned %v, want %v", candidates, want)
	}
}

func TestFetchSourceReturnsBody(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("1.2.3.4:1080\n"))
	}))
	defer server.Close()

	body, err := FetchSource(context.Background(), server.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("FetchSource returned error: %v", err)
	}
	if body != "1.2.3.4:1080\n" {
		t.Fatalf("FetchSource returned %q", body)
	}
	if gotAgent == "" {
		t.Fatal("FetchSource sent no User-Agent header")
	}
}

func TestFetchSourceRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := FetchSource(context.Background(), server.URL, 2*time.Second); err == nil {
		t.Fatal("FetchSource accepted a 500 response")
	}
}

func TestFetchSourceHonorsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	_, err := FetchSource(context.Background(), server.URL, 100*time.Millisecond)
	if err == nil {
		t.Fatal("FetchSource returned no error for a stalled source")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("FetchSource took %v, want prompt timeout", elapsed)
	}
}
