package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axsaucedo/agentrun/a2a"
	"github.com/axsaucedo/agentrun/core"
	"github.com/axsaucedo/agentrun/mcp"
	"github.com/axsaucedo/agentrun/memory"
	"github.com/axsaucedo/agentrun/model"
)

func newTestAgent(t *testing.T, optFns ...func(c *Config)) (*Agent, *model.MockModel, *memory.Service) {
	t.Helper()
	mdl := model.NewMockModel("test-model")
	mem := memory.NewService()
	cfg := Config{Name: "tester", Model: mdl, Memory: mem}
	for _, fn := range optFns {
		fn(&cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	return a, mdl, mem
}

func eventTypes(events []core.MemoryEvent) []core.EventType {
	types := make([]core.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Model: model.NewMockModel("m")})
	assert.Error(t, err)
	_, err = New(Config{Name: "a"})
	assert.Error(t, err)
}

func TestProcessMessageSyncRecordsTurn(t *testing.T) {
	a, mdl, mem := newTestAgent(t)
	mdl.AddResponse("hello", "hi there")

	sid, response, err := a.ProcessMessageSync(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", response)
	require.NotEmpty(t, sid)

	events := mem.Events(sid)
	require.Len(t, events, 2)
	assert.Equal(t, core.EventUserMessage, events[0].Type)
	assert.Equal(t, "hello", events[0].Content)
	assert.Equal(t, core.EventAgentResponse, events[1].Type)
	assert.Equal(t, "hi there", events[1].Content)
}

func TestProcessMessageCreatesSuppliedSession(t *testing.T) {
	a, _, mem := newTestAgent(t)

	sid, _, err := a.ProcessMessageSync(context.Background(), "my-session", "hello")
	require.NoError(t, err)
	assert.Equal(t, "my-session", sid)
	_, ok := mem.Session("my-session")
	assert.True(t, ok)
}

func TestProcessMessageReusesSession(t *testing.T) {
	a, _, mem := newTestAgent(t)

	sid, _, err := a.ProcessMessageSync(context.Background(), "", "first")
	require.NoError(t, err)
	_, _, err = a.ProcessMessageSync(context.Background(), sid, "second")
	require.NoError(t, err)

	events := mem.Events(sid)
	require.Len(t, events, 4)
	assert.Equal(t, "first", events[0].Content)
	assert.Equal(t, "second", events[2].Content)
}

func TestProcessMessageStreaming(t *testing.T) {
	a, mdl, _ := newTestAgent(t)
	mdl.AddResponse("stream me", "chunked reply")

	_, chunks, errCh := a.ProcessMessage(context.Background(), "", "stream me", true)
	var full string
	for chunk := range chunks {
		full += chunk
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, "chunked reply", full)
}

func TestProcessMessageModelFailure(t *testing.T) {
	a, mdl, mem := newTestAgent(t)
	mdl.FailWith(errors.New("backend exploded"))

	sid, response, err := a.ProcessMessageSync(context.Background(), "", "hello")
	require.NoError(t, err, "a model failure must not fail the turn")
	assert.Contains(t, response, "Sorry, I encountered an error:")
	assert.Contains(t, response, "backend exploded")

	types := eventTypes(mem.Events(sid))
	assert.Equal(t, []core.EventType{core.EventUserMessage, core.EventError, core.EventAgentResponse}, types)
}

func TestExecuteToolUnknown(t *testing.T) {
	a, _, _ := newTestAgent(t)

	_, err := a.ExecuteTool(context.Background(), "missing", nil)
	var notFound *core.ToolNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Name)
}

func TestExecuteToolRecordsEvent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"tools":[{"name":"add","description":"Add"}]}`))
	})
	mux.HandleFunc("/mcp/call", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result": 7}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg, err := mcp.NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	_, err = reg.DiscoverTools(context.Background())
	require.NoError(t, err)

	a, _, mem := newTestAgent(t, func(c *Config) {
		c.Registries = []*mcp.Registry{reg}
	})

	result, err := a.ExecuteTool(context.Background(), "add", map[string]any{"a": 3, "b": 4})
	require.NoError(t, err)
	assert.Equal(t, float64(7), result)

	types := eventTypes(mem.AllEvents())
	assert.Contains(t, types, core.EventToolCall)
}

func TestDelegateUnknownPeer(t *testing.T) {
	a, _, mem := newTestAgent(t)

	_, err := a.Delegate(context.Background(), "nobody", "task")
	var notFound *core.PeerNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nobody", notFound.Name)
	assert.Empty(t, mem.AllEvents(), "a failed lookup must not record delegation events")
}

func TestDelegateRecordsRequestAndResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/agent", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(core.AgentCard{Name: "worker"})
	})
	mux.HandleFunc("/agent/invoke", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "delegated result"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	peer, err := a2a.NewRemoteAgent("worker", srv.URL)
	require.NoError(t, err)
	a, _, mem := newTestAgent(t, func(c *Config) {
		c.Peers = []*a2a.RemoteAgent{peer}
	})

	response, err := a.Delegate(context.Background(), "worker", "do the thing")
	require.NoError(t, err)
	assert.Equal(t, "delegated result", response)

	events := mem.AllEvents()
	types := eventTypes(events)
	assert.Equal(t, []core.EventType{core.EventDelegationRequest, core.EventDelegationResponse}, types)
	assert.Equal(t, "do the thing", events[0].Content)
	assert.Equal(t, "worker", events[0].Metadata["peer"])
	assert.Equal(t, "delegated result", events[1].Content)
}

func TestDelegateFailureRecordsError(t *testing.T) {
	peer, err := a2a.NewRemoteAgent("ghost", "http://127.0.0.1:1")
	require.NoError(t, err)
	a, _, mem := newTestAgent(t, func(c *Config) {
		c.Peers = []*a2a.RemoteAgent{peer}
	})

	_, err = a.Delegate(context.Background(), "ghost", "task")
	require.Error(t, err)

	types := eventTypes(mem.AllEvents())
	assert.Equal(t, []core.EventType{core.EventDelegationRequest, core.EventError}, types)
}

func TestCardCapabilities(t *testing.T) {
	a, _, _ := newTestAgent(t)
	card := a.Card("http://localhost:8000")
	assert.Equal(t, "tester", card.Name)
	assert.Equal(t, "http://localhost:8000", card.URL)
	assert.Equal(t, []string{core.CapabilityTaskExecution}, card.Capabilities)
	assert.NotNil(t, card.Skills)
	assert.Empty(t, card.Skills)
}

func TestCardWithToolsAndPeers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"tools":[{"name":"add","description":"Add two numbers"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg, err := mcp.NewRegistry([]string{srv.URL})
	require.NoError(t, err)
	_, err = reg.DiscoverTools(context.Background())
	require.NoError(t, err)
	peer, err := a2a.NewRemoteAgent("worker", "http://127.0.0.1:1")
	require.NoError(t, err)

	a, _, _ := newTestAgent(t, func(c *Config) {
		c.Registries = []*mcp.Registry{reg}
		c.Peers = []*a2a.RemoteAgent{peer}
	})

	card := a.Card("http://localhost:8000")
	require.Len(t, card.Skills, 1)
	assert.Equal(t, "add", card.Skills[0].Name)
	assert.ElementsMatch(t, []string{
		core.CapabilityTaskExecution,
		core.CapabilityToolExecution,
		core.CapabilityTaskDelegation,
	}, card.Capabilities)
}

func TestContextIncludesPriorTurns(t *testing.T) {
	a, mdl, _ := newTestAgent(t)
	mdl.AddResponse("first", "first answer")

	sid, _, err := a.ProcessMessageSync(context.Background(), "", "first")
	require.NoError(t, err)

	// The second turn's model input must carry the first turn in context.
	// The mock keys on the last message, so assert via memory instead.
	_, response, err := a.ProcessMessageSync(context.Background(), sid, "second")
	require.NoError(t, err)
	assert.Contains(t, response, "second")
}
