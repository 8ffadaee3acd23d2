//go:build integration
// +build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHealthz(t *testing.T) {
	resp, err := http.Get(fmt.Sprintf("%s/healthz", baseURL()))
	if err != nil {
		t.Fatalf("health check request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
}

func TestPing(t *testing.T) {
	var out struct {
		Pong bool `json:"pong"`
	}
	if status := doJSON(t, http.MethodGet, baseURL()+"/v1/ping", "", nil, &out); status != http.StatusOK {
		t.Fatalf("unexpected status code: %d", status)
	}
	if !out.Pong {
		t.Fatal("pong is false")
	}
}
