package a2a

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

func peerServer(t *testing.T, card core.AgentCard, invoke http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/agent", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(card)
	})
	if invoke != nil {
		mux.HandleFunc("/agent/invoke", invoke)
	}
	return httptest.NewServer(mux)
}

func TestNewRemoteAgentRequiresURL(t *testing.T) {
	_, err := NewRemoteAgent("peer", "")
	assert.Error(t, err)
}

func TestDiscoverCachesCard(t *testing.T) {
	srv := peerServer(t, core.AgentCard{
		Name:         "worker",
		Description:  "A worker agent",
		Capabilities: []string{core.CapabilityTaskExecution},
	}, nil)
	defer srv.Close()

	peer, err := NewRemoteAgent("worker", srv.URL)
	require.NoError(t, err)

	card, err := peer.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "worker", card.Name)
	// Card omitted its URL; the discovery address fills in.
	assert.Equal(t, srv.URL, card.URL)

	cached, ok := peer.Card()
	require.True(t, ok)
	assert.Equal(t, card.Name, cached.Name)
}

func TestDiscoverUnreachablePeer(t *testing.T) {
	peer, err := NewRemoteAgent("ghost", "http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = peer.Discover(context.Background())
	var unreachable *core.PeerUnreachableError
	require.True(t, errors.As(err, &unreachable))
	assert.Equal(t, "ghost", unreachable.Name)
	_, ok := peer.Card()
	assert.False(t, ok)
}

func TestInvokeAutoDiscovers(t *testing.T) {
	srv := peerServer(t, core.AgentCard{Name: "worker"},
		func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Task string `json:"task"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "do work", req.Task)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":   "completed",
				"agent":    "worker",
				"response": "done",
			})
		})
	defer srv.Close()

	peer, err := NewRemoteAgent("worker", srv.URL)
	require.NoError(t, err)

	// No prior Discover call: Invoke fetches the card itself.
	response, err := peer.Invoke(context.Background(), "do work")
	require.NoError(t, err)
	assert.Equal(t, "done", response)
}

func TestInvokeFollowsCardURL(t *testing.T) {
	// The card advertises a different host for invocation than the one the
	// card was fetched from.
	invokeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/agent/invoke", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "from invoke host"})
	}))
	defer invokeSrv.Close()

	cardSrv := peerServer(t, core.AgentCard{Name: "worker", URL: invokeSrv.URL}, nil)
	defer cardSrv.Close()

	peer, err := NewRemoteAgent("worker", cardSrv.URL)
	require.NoError(t, err)

	response, err := peer.Invoke(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "from invoke host", response)
}

func TestInvokeFailureKeepsCard(t *testing.T) {
	srv := peerServer(t, core.AgentCard{Name: "worker"},
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
	defer srv.Close()

	peer, err := NewRemoteAgent("worker", srv.URL)
	require.NoError(t, err)
	_, err = peer.Discover(context.Background())
	require.NoError(t, err)

	_, err = peer.Invoke(context.Background(), "task")
	require.Error(t, err)
	_, ok := peer.Card()
	assert.True(t, ok, "invocation failure must not evict the cached card")
}

func TestInvokeNonEnvelopeBody(t *testing.T) {
	srv := peerServer(t, core.AgentCard{Name: "worker"},
		func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`plain text answer`))
		})
	defer srv.Close()

	peer, err := NewRemoteAgent("worker", srv.URL)
	require.NoError(t, err)

	response, err := peer.Invoke(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "plain text answer", response)
}
