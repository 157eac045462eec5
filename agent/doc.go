// Package agent implements the orchestration core: one Agent composes a
// model backend, session memory, tool registries and peer clients into a
// request-handling pipeline. A conversational turn builds context from
// memory, calls the model, and records the outcome; tool execution and peer
// delegation are explicit operations layered on the same memory.
//
// The failure policy is asymmetric on purpose: collaborator errors before a
// turn starts (unknown tool, unknown peer) propagate as typed errors, but a
// model backend failure mid-turn is absorbed into an apologetic response so
// one collaborator outage cannot crash the caller's request.
package agent
