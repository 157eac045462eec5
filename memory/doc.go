// Package memory implements the per-process session memory service: an
// append-only event log per session, used both for debugging introspection
// and to rebuild conversational context for model calls. Sessions are owned
// exclusively by the process that created them; nothing here is shared
// across agent instances.
package memory
