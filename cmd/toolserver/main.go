// Command toolserver serves a manifest-selected set of built-in tools over
// the tool wire protocol. The manifest names tools from a closed registry;
// it cannot define new behavior.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/axsaucedo/agentrun/config"
	"github.com/axsaucedo/agentrun/logging"
	"github.com/axsaucedo/agentrun/mcp"
	"github.com/axsaucedo/agentrun/tool"
)

func main() {
	manifestPath := flag.String("manifest", "tools.yaml", "path to the tool manifest")
	flag.Parse()

	manifest, err := config.LoadToolManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toolserver: %v\n", err)
		os.Exit(1)
	}

	tools, err := tool.Builtins(manifest.Tools)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toolserver: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Component: "toolserver"})
	srv := mcp.NewServer(tools, func(o *mcp.ServerOptions) {
		o.Logger = logger
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", manifest.Port)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		fmt.Fprintf(os.Stderr, "toolserver: %v\n", err)
		os.Exit(1)
	}
}
