package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-response-cache/internal/script"
	"github.com/goliatone/go-response-cache/pkg/testsupport"
)

const walkthrough = `
name: api walkthrough
steps:
  - name: list
    op: get_list
    url: /users
    list_path: [data]
  - name: list cached
    op: get_list
    url: /users
    select: "data.#.name"
  - name: lookup
    op: find
    id: 2
    list_path: [data]
    select: name
`

func newAPI(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"Ada"},{"id":2,"name":"Linus"}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard

	err := app.Run(context.Background(), append([]string{"respcache"}, args...))
	return out.String(), err
}

func TestRun_Text(t *testing.T) {
	srv, hits := newAPI(t)
	path := testsupport.TempFile(t, "walkthrough.yaml", []byte(walkthrough))

	out, err := runApp(t, "run", "--base-url", srv.URL, "--token", "s3cret", path)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, out, "script: api walkthrough")
	assert.Contains(t, out, `["Ada","Linus"]`)
	assert.Contains(t, out, `"Linus"`)
	assert.Contains(t, out, "hits 2  misses 1")
}

func TestRun_JSON(t *testing.T) {
	srv, _ := newAPI(t)
	path := testsupport.TempFile(t, "walkthrough.yaml", []byte(walkthrough))

	out, err := runApp(t, "run", "-u", srv.URL, "--token", "s3cret", "-o", "json", path)
	require.NoError(t, err)

	var rep script.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Results, 3)
	assert.False(t, rep.Results[0].Hit())
	assert.True(t, rep.Results[1].Hit())
	assert.JSONEq(t, `"Linus"`, string(rep.Results[2].Output))
	assert.Equal(t, int64(2), rep.Totals.Hits)
}

func TestRun_FailingStepStillRenders(t *testing.T) {
	srv, _ := newAPI(t)
	path := testsupport.TempFile(t, "fail.yaml", []byte(`
steps:
  - name: missing
    op: get
    url: /nope
`))

	out, err := runApp(t, "run", "-u", srv.URL, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (missing)")
	assert.Contains(t, out, "[1] error:")
}

func TestRun_RequiresScript(t *testing.T) {
	_, err := runApp(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script path is required")
}

func TestConfig_FromFile(t *testing.T) {
	out, err := runApp(t, "--config", testsupport.FixturePath("cache.yaml"), "config")
	require.NoError(t, err)

	assert.Contains(t, out, "id_key: uuid")
	assert.Contains(t, out, "validity: 1m0s")
	assert.Contains(t, out, "backend: memory")
}

func TestConfig_FromEnv(t *testing.T) {
	t.Setenv("RESPCACHE_ID_KEY", "slug")
	t.Setenv("RESPCACHE_UNEXPIRING", "true")

	out, err := runApp(t, "config")
	require.NoError(t, err)

	assert.Contains(t, out, "id_key: slug")
	assert.Contains(t, out, "unexpiring: true")
}

func TestConfig_Invalid(t *testing.T) {
	t.Setenv("RESPCACHE_BACKEND", "redis")

	_, err := runApp(t, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache config")
}
