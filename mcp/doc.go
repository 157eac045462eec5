// Package mcp implements both sides of the tool wire protocol: Registry is
// the client that discovers tools from configured tool servers and executes
// them by name, and Server hosts a closed set of built-in tools behind the
// same protocol for other agents to consume.
//
// The protocol is deliberately loose: discovery answers on one of
// /mcp/tools, /tools or /v1/tools with either a bare list of descriptors or
// a {"tools": [...]} envelope, and execution answers on one of /mcp/call,
// /call or /v1/call with either a {"result": ...} envelope or a bare value.
// Registry probes the candidates in order and takes the first that works.
package mcp
