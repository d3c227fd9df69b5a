package netx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Run("sends bearer token and JSON body, decodes response", func(t *testing.T) {
		var gotAuth, gotCT, gotMethod string
		var gotBody map[string]string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotAuth = r.Header.Get("Authorization")
			gotCT = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte(`{"error":false,"message":"ok"}`))
		}))
		defer ts.Close()

		var out struct {
			Message string `json:"message"`
		}
		err := Do(context.Background(), ts.Client(), Request{
			Method: http.MethodPost,
			URL:    ts.URL + "/notifications/subscribe",
			Token:  "tkn",
			In:     map[string]string{"endpoint": "e"},
			Out:    &out,
		})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "Bearer tkn", gotAuth)
		assert.Equal(t, "application/json", gotCT)
		assert.Equal(t, "e", gotBody["endpoint"])
		assert.Equal(t, "ok", out.Message)
	})

	t.Run("non-2xx with JSON message -> StatusError carrying it", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":true,"message":"\"endpoint\" is required"}`))
		}))
		defer ts.Close()

		err := Do(context.Background(), ts.Client(), Request{Method: http.MethodPost, URL: ts.URL})
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadRequest, se.Status)
		assert.Equal(t, `"endpoint" is required`, se.Message)
		assert.Equal(t, `HTTP 400: "endpoint" is required`, se.Error())
	})

	t.Run("non-2xx without JSON -> status text", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>oops</html>"))
		}))
		defer ts.Close()

		err := Do(context.Background(), ts.Client(), Request{Method: http.MethodGet, URL: ts.URL})
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "Bad Gateway", se.Message)
	})

	t.Run("transport failure is not a StatusError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close()

		err := Do(context.Background(), http.DefaultClient, Request{Method: http.MethodGet, URL: url})
		require.Error(t, err)
		var se *StatusError
		assert.False(t, errors.As(err, &se))
	})

	t.Run("bad response JSON", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		}))
		defer ts.Close()

		var out map[string]any
		err := Do(context.Background(), ts.Client(), Request{Method: http.MethodGet, URL: ts.URL, Out: &out})
		require.ErrorContains(t, err, "decode response")
	})
}
