// Command agentrun runs one agent node: it loads configuration, wires the
// runtime and serves the HTTP gateway until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/axsaucedo/agentrun"
	"github.com/axsaucedo/agentrun/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to environment variables)")
	flag.Parse()

	cfg := config.FromEnv()
	if *configPath != "" {
		var err error
		if cfg, err = config.FromFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "agentrun: %v\n", err)
			os.Exit(1)
		}
	}

	rt, err := agentrun.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agentrun: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "agentrun: %v\n", err)
		os.Exit(1)
	}
}
