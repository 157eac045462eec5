package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoFallsThroughOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tools" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	body, err := Do(context.Background(), srv.Client(), srv.URL,
		[]string{"/mcp/tools", "/tools", "/v1/tools"}, nil, NextOn404)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestDoAbortsOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := Do(context.Background(), srv.Client(), srv.URL,
		[]string{"/a", "/b"}, nil, NextOn404)
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, 1, calls, "probe must stop at the first non-404 failure")
}

func TestDoExhaustsAllPaths(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Do(context.Background(), srv.Client(), srv.URL,
		[]string{"/a", "/b"}, nil, NextOn404)
	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, []string{"/a", "/b"}, exhausted.Paths)
}

func TestNextOnTransientOr404ContinuesPastTransportError(t *testing.T) {
	assert.True(t, NextOnTransientOr404(0, errors.New("connection refused")))
	assert.True(t, NextOnTransientOr404(http.StatusNotFound, nil))
	assert.False(t, NextOnTransientOr404(http.StatusInternalServerError, nil))

	assert.False(t, NextOn404(0, errors.New("connection refused")))
	assert.True(t, NextOn404(http.StatusNotFound, nil))
}

func TestDoPostsJSONPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`done`))
	}))
	defer srv.Close()

	body, err := Do(context.Background(), srv.Client(), srv.URL,
		[]string{"/call"}, map[string]string{"k": "v"}, NextOn404)
	require.NoError(t, err)
	assert.Equal(t, "done", string(body))
}
