// Package server exposes one Agent over HTTP on two protocol surfaces: the
// agent-to-agent surface (well-known card, invoke, delegate, memory
// introspection) and an OpenAI-compatible chat completions surface with
// optional server-sent event streaming. Both surfaces drive the same agent
// and the same session memory.
package server
