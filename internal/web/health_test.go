package web_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dimbox/dimbox/internal/web"
	"github.com/stretchr/testify/require"
)

func TestLivez(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rec := e.get("/livez")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp web.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "test", resp.Version)
	require.NotEmpty(t, resp.Uptime)
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rec := e.get("/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	e.session.Init(t.Context())
	rec = e.get("/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp web.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "anonymous", resp.Checks["session"])
	require.Equal(t, "ok", resp.Checks["token_store"])
}

func TestStaticAssets(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rec := e.get("/static/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "addEventListener")
}
