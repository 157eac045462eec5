package tool

import (
	"context"
	"fmt"
	"math"
)

func numberSchema(fields map[string]string, required []string) map[string]any {
	props := make(map[string]any, len(fields))
	for name, desc := range fields {
		props[name] = map[string]any{"type": "number", "description": desc}
	}
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func numArg(args map[string]any, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("argument %q must be a number", key)
	}
}

func binaryMathTool(name, description string, fn func(a, b float64) (float64, error)) Tool {
	return NewFunctionTool(name, description,
		numberSchema(map[string]string{"a": "First number", "b": "Second number"}, []string{"a", "b"}),
		func(_ context.Context, args map[string]any) (any, error) {
			a, err := numArg(args, "a")
			if err != nil {
				return nil, err
			}
			b, err := numArg(args, "b")
			if err != nil {
				return nil, err
			}
			return fn(a, b)
		})
}

// builtins is the complete, closed set of tool implementations a manifest
// may select from. Adding a tool means adding code here; manifests cannot
// define behavior.
var builtins = map[string]func() Tool{
	"add": func() Tool {
		return binaryMathTool("add", "Add two numbers",
			func(a, b float64) (float64, error) { return a + b, nil })
	},
	"subtract": func() Tool {
		return binaryMathTool("subtract", "Subtract two numbers (a - b)",
			func(a, b float64) (float64, error) { return a - b, nil })
	},
	"multiply": func() Tool {
		return binaryMathTool("multiply", "Multiply two numbers",
			func(a, b float64) (float64, error) { return a * b, nil })
	},
	"divide": func() Tool {
		return binaryMathTool("divide", "Divide two numbers (a / b)",
			func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, fmt.Errorf("division by zero")
				}
				return a / b, nil
			})
	},
	"power": func() Tool {
		return binaryMathTool("power", "Raise a number to a power (a ** b)",
			func(a, b float64) (float64, error) { return math.Pow(a, b), nil })
	},
	"square_root": func() Tool {
		return NewFunctionTool("square_root", "Calculate square root of a number",
			numberSchema(map[string]string{"a": "Number (must be >= 0)"}, []string{"a"}),
			func(_ context.Context, args map[string]any) (any, error) {
				a, err := numArg(args, "a")
				if err != nil {
					return nil, err
				}
				if a < 0 {
					return nil, fmt.Errorf("square root of negative number")
				}
				return math.Sqrt(a), nil
			})
	},
	"echo": func() Tool {
		return NewFunctionTool("echo", "Echo the provided message back",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"message": map[string]any{"type": "string", "description": "Message to echo"},
				},
				"required": []string{"message"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				msg, _ := args["message"].(string)
				return msg, nil
			})
	},
}

// Builtin returns the named built-in tool, or an error when the name is not
// part of the closed set.
func Builtin(name string) (Tool, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in tool %q", name)
	}
	return ctor(), nil
}

// Builtins resolves a list of manifest names into tool instances, failing
// on the first unknown name.
func Builtins(names []string) ([]Tool, error) {
	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		t, err := Builtin(name)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}

// BuiltinNames lists every available built-in tool name.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}
