package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRecorderScrape(t *testing.T) {
	r := NewRecorder()
	r.ObserveDecode("jpeg", 42*time.Millisecond)
	r.ObserveEncode("webp", 10*time.Millisecond)
	r.Failure("too_large_image")
	r.Saved("webp")
	r.PageScanned()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read scrape: %v", err)
	}

	for _, metric := range []string{
		"imgplex_decode_duration_seconds",
		"imgplex_encode_duration_seconds",
		"imgplex_failures_total",
		"imgplex_saves_total",
		"imgplex_pages_scanned_total",
	} {
		if !strings.Contains(string(body), metric) {
			t.Errorf("scrape output missing %s", metric)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveDecode("jpeg", time.Second)
	r.ObserveEncode("png", time.Second)
	r.Failure("invalid_image")
	r.Saved("png")
	r.PageScanned()
}
