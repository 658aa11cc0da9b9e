package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndntg/namepush/cfg"
	"github.com/ndntg/namepush/engine"
)

func TestHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewServer(nil).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["data"]["status"])
}

func TestStatsEndpoint(t *testing.T) {
	patterns := []cfg.Pattern{
		{Name: "/ndn/a", GenerationInterval: time.Millisecond},
		{Name: "/ndn/b", GenerationInterval: time.Millisecond},
	}
	stats := engine.NewStats(patterns, &bytes.Buffer{})
	stats.RecordPublish(0)
	stats.RecordPublish(0)
	stats.RecordPublish(1)

	srv := httptest.NewServer(NewServer(stats).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/statz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data engine.Snapshot `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(3), body.Data.TotalPublished)
	require.Len(t, body.Data.Patterns, 2)
	assert.Equal(t, "/ndn/a", body.Data.Patterns[0].Name)
	assert.Equal(t, uint64(2), body.Data.Patterns[0].Published)
}

func TestStatsEndpointWithoutRun(t *testing.T) {
	srv := httptest.NewServer(NewServer(nil).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/statz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:9090", Addr("0.0.0.0", 9090))
}
