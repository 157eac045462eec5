// Package core defines the shared data model of the agent runtime: memory
// events and sessions, agent discovery cards and the typed error taxonomy
// used across the tool registry, peer client, agent and gateway packages. Types here are plain data; behavior lives in the
// component packages that own it.
package core
