package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mobile-next/idbtap/cli"
	"github.com/mobile-next/idbtap/commands"
	"github.com/mobile-next/idbtap/devices"
	"github.com/mobile-next/idbtap/utils"
)

func main() {
	// create companion registry and shutdown hooks for cleanup tracking
	registry := devices.NewRegistry()
	commands.SetRegistry(registry)
	hook := devices.NewShutdownHook()
	commands.SetShutdownHook(hook)

	// cancel the running command on SIGINT/SIGTERM; a second signal kills
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cli.Execute(ctx)
	interrupted := ctx.Err() != nil
	stop()

	cleanup(registry, hook)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if interrupted {
		os.Exit(130)
	}
}

// cleanup closes every open companion, which also stops spawned
// idb_companion processes, then runs the remaining hooks.
func cleanup(registry *devices.Registry, hook *devices.ShutdownHook) {
	commands.ReleaseCompanions()
	if err := registry.CloseAll(); err != nil {
		utils.Warn("Error closing companions: %v", err)
	}
	if err := hook.Shutdown(); err != nil {
		utils.Warn("Error running shutdown hooks: %v", err)
	}
}
