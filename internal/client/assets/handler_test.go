package assets

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProxiesThroughWorker(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, r.Method+" "+r.URL.RequestURI())
	}))
	defer upstream.Close()

	w := newWorker(t, "storyshelf-v1", NewMemoryStorage(), newMapOrigin(), upstream.Client())
	srv := httptest.NewServer(NewHandler(w, upstream.URL, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/manifest.json?x=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "GET /manifest.json?x=1", string(body))
}

func TestHandler_OfflineNavigation(t *testing.T) {
	w := newWorker(t, "storyshelf-v1", NewMemoryStorage(), newMapOrigin(), offline)
	require.NoError(t, w.Ensure(context.Background()))
	srv := httptest.NewServer(NewHandler(w, "http://app.local", nil))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/html")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html>shell</html>", string(body))

	resp2, err := http.Get(srv.URL + "/manifest.json")
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp2.StatusCode)
}
