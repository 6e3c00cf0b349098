package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samvad-hq/newsapi-harvester/internal/metrics"
	"github.com/samvad-hq/newsapi-harvester/pkg/newsapi"
)

func TestMetricsMuxServesHealthAndMetrics(t *testing.T) {
	metrics.ObserveRequest(newsapi.EndpointSources, nil, 0)

	srv := httptest.NewServer(newMetricsMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "healthy") {
		t.Fatalf("unexpected health response %d %s", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "newsapi_requests_total") {
		t.Fatalf("metrics output missing newsapi_requests_total")
	}
}
