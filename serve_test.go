package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"arkive/archiver"
	"arkive/config"
	"arkive/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	loaded, err := config.Load(config.New(), "")
	require.NoError(t, err)
	loaded.WaybackEndpoint = endpoint
	loaded.ProviderTimeout = 5 * time.Second
	return loaded
}

func TestNewAppSubmitsThroughWayback(t *testing.T) {
	var saves atomic.Int32
	var userAgent atomic.Value
	wb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		saves.Add(1)
		userAgent.Store(r.UserAgent())
		target := strings.TrimPrefix(r.URL.Path, "/save/")
		w.Header().Set("Content-Location", "/web/20240101000000/"+target)
		w.WriteHeader(http.StatusOK)
	}))
	defer wb.Close()

	cfg := testConfig(t, wb.URL)
	app, cleanup, err := newApp(context.Background(), cfg, testutil.SetupTestDB(t))
	require.NoError(t, err)
	defer cleanup()

	get := func(path string) (int, archiver.Response) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body archiver.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	code, body := get("/https://example.com/page")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, archiver.StatusSuccess, body.Status)
	assert.Equal(t, wb.URL+"/web/20240101000000/https://example.com/page", body.ArchiveURL)
	assert.Equal(t, config.DefaultUserAgent, userAgent.Load())

	code, body = get("/https://example.com/page")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, archiver.StatusDuplicate, body.Status)
	assert.Equal(t, int32(1), saves.Load())
}

func TestNewAppRejectsBadEndpoint(t *testing.T) {
	cfg := testConfig(t, "not a url")
	_, _, err := newApp(context.Background(), cfg, testutil.SetupTestDB(t))
	assert.Error(t, err)
}

func TestNewAppFailsWithoutRedis(t *testing.T) {
	cfg := testConfig(t, "https://web.archive.org")
	cfg.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := newApp(ctx, cfg, testutil.SetupTestDB(t))
	assert.Error(t, err)
}
