package core

// Capability names advertised in an AgentCard. task_execution is always
// present; the other two depend on configured tools and peers.
const (
	CapabilityTaskExecution  = "task_execution"
	CapabilityToolExecution  = "tool_execution"
	CapabilityTaskDelegation = "task_delegation"
)

// Skill describes one callable tool advertised by an agent.
type Skill struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// AgentCard is the A2A discovery document served at /.well-known/agent.
// URL is the base address peers must use for subsequent invoke calls; it may
// differ from the address the card was fetched from.
type AgentCard struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	Skills       []Skill  `json:"skills"`
	Capabilities []string `json:"capabilities"`
}

// HasCapability reports whether the card advertises the named capability.
func (c AgentCard) HasCapability(name string) bool {
	for _, cap := range c.Capabilities {
		if cap == name {
			return true
		}
	}
	return false
}
