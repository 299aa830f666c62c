//go:build integration

// Integration test against a running server: task run
//
// Run: go test -tags=integration ./internal/server/
package server_test

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
)

func baseURL() string {
	if u := os.Getenv("CLAIMMAP_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8087"
}

func getJSON(t *testing.T, path string, v any) {
	t.Helper()
	resp, err := http.Get(baseURL() + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status=%d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	var body struct{ Status string }
	getJSON(t, "/health", &body)
	if body.Status != "ok" {
		t.Fatalf("status=%q, want ok", body.Status)
	}
}

func TestGetInfo(t *testing.T) {
	var body struct{ Name string }
	getJSON(t, "/api/v1/info", &body)
	if body.Name != "claimmap" {
		t.Fatalf("name=%q, want claimmap", body.Name)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	resp, err := http.Get(baseURL() + "/api/v1/import/incidents/template")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type=%q", ct)
	}

	var styles []struct{ Name string }
	getJSON(t, "/api/v1/map/styles", &styles)
	if len(styles) == 0 {
		t.Fatal("no styles configured")
	}
}
