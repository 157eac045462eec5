// Package model abstracts the chat-completion backend behind a single lazy
// generation interface. Backends emit a channel of Response values: zero or
// more partial chunks followed by a terminal response carrying the finish
// reason; the concatenation of every Content field is the complete text.
// Non-streaming callers simply drain the channel and concatenate; there is
// no separate non-streaming code path.
//
// Adapters for concrete providers live in the subpackages openai and
// anthropic. MockModel in this package backs tests.
package model
