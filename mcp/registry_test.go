package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axsaucedo/agentrun/core"
)

func toolServer(t *testing.T, listPath string, tools []map[string]any, handleCall http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(listPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"tools": tools})
	})
	if handleCall != nil {
		mux.HandleFunc("/mcp/call", handleCall)
	}
	return httptest.NewServer(mux)
}

func TestNewRegistryRequiresServers(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)
}

func TestDiscoverToolsPathFallback(t *testing.T) {
	// Server only answers the second candidate path.
	srv := toolServer(t, "/tools", []map[string]any{
		{"name": "add", "description": "Add two numbers"},
	}, nil)
	defer srv.Close()

	reg, err := NewRegistry([]string{srv.URL})
	require.NoError(t, err)

	tools, err := reg.DiscoverTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "add", tools[0].Name)
	assert.Equal(t, srv.URL, tools[0].Server)
	assert.True(t, reg.Has("add"))
}

func TestDiscoverToolsPartialSuccess(t *testing.T) {
	srv := toolServer(t, "/mcp/tools", []map[string]any{
		{"name": "echo", "description": "Echo"},
	}, nil)
	defer srv.Close()

	// Second server is unreachable; the sweep must still succeed.
	reg, err := NewRegistry([]string{srv.URL, "http://127.0.0.1:1"})
	require.NoError(t, err)

	tools, err := reg.DiscoverTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, reg.ToolNames())
	assert.Len(t, tools, 1)
}

func TestDiscoverToolsAllServersDown(t *testing.T) {
	reg, err := NewRegistry([]string{"http://127.0.0.1:1", "http://127.0.0.1:2"})
	require.NoError(t, err)

	_, err = reg.DiscoverTools(context.Background())
	require.Error(t, err)
	var discErr *core.DiscoveryError
	assert.True(t, errors.As(err, &discErr))
	assert.Equal(t, 2, discErr.Servers)
}

func TestDiscoverToolsKeepsCacheOnTotalFailure(t *testing.T) {
	srv := toolServer(t, "/mcp/tools", []map[string]any{{"name": "add"}}, nil)
	reg, err := NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	_, err = reg.DiscoverTools(context.Background())
	require.NoError(t, err)
	srv.Close()

	_, err = reg.DiscoverTools(context.Background())
	require.Error(t, err)
	assert.True(t, reg.Has("add"), "failed sweep must not evict the cache")
}

func TestDiscoverToolsSkipsMalformedEntries(t *testing.T) {
	srv := toolServer(t, "/mcp/tools", []map[string]any{
		{"name": "good", "description": "ok"},
		{"description": "missing name"},
	}, nil)
	defer srv.Close()

	reg, err := NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	tools, err := reg.DiscoverTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "good", tools[0].Name)
}

func TestDiscoverToolsBareListPayload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"name":"bare","description":"no envelope"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg, err := NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	tools, err := reg.DiscoverTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "bare", tools[0].Name)
}

func TestCallToolUnknownName(t *testing.T) {
	srv := toolServer(t, "/mcp/tools", []map[string]any{{"name": "add"}}, nil)
	defer srv.Close()

	reg, err := NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	_, err = reg.DiscoverTools(context.Background())
	require.NoError(t, err)

	_, err = reg.CallTool(context.Background(), "missing", nil)
	var notFound *core.ToolNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Name)
	assert.Equal(t, []string{"add"}, notFound.Available)
}

func TestCallToolUnwrapsResultEnvelope(t *testing.T) {
	srv := toolServer(t, "/mcp/tools", []map[string]any{{"name": "add"}},
		func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Tool      string         `json:"tool"`
				Arguments map[string]any `json:"arguments"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "add", req.Tool)
			assert.Equal(t, float64(2), req.Arguments["a"])
			w.Write([]byte(`{"result": 5}`))
		})
	defer srv.Close()

	reg, err := NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	_, err = reg.DiscoverTools(context.Background())
	require.NoError(t, err)

	result, err := reg.CallTool(context.Background(), "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, float64(5), result)
}

func TestCallToolAbortsOnServerError(t *testing.T) {
	srv := toolServer(t, "/mcp/tools", []map[string]any{{"name": "add"}},
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
	defer srv.Close()

	reg, err := NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	_, err = reg.DiscoverTools(context.Background())
	require.NoError(t, err)

	_, err = reg.CallTool(context.Background(), "add", nil)
	var execErr *core.ToolExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "add", execErr.Name)
}

func TestCallToolPathFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"tools":[{"name":"echo"}]}`))
	})
	// Only the last candidate call path exists.
	mux.HandleFunc("/v1/call", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result":"hi"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg, err := NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	_, err = reg.DiscoverTools(context.Background())
	require.NoError(t, err)

	result, err := reg.CallTool(context.Background(), "echo", map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}
