// Package tool implements the closed tool registry hosted by a tool server
// process. Tools are typed handlers with a name, description and JSON
// parameter schema; the set of implementations is fixed at compile time and
// a manifest may only select from it by name. There is deliberately no path
// that turns caller-supplied text into executable behavior.
package tool

import (
	"context"
	"fmt"

	"github.com/axsaucedo/agentrun/internal/util"
)

// Tool is a callable capability hosted by a tool server.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case recommended)
//   - Define a JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does, provided to models to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool. Arguments have already been decoded from
	// JSON; implementations validate them against the declared schema.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}
