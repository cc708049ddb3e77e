package main

import (
	"context"
	"fmt"
	"os"

	"github.com/denchenko/gmm/internal/adapters"
	"github.com/denchenko/gmm/internal/config"
	"github.com/denchenko/gmm/internal/core"
	"github.com/denchenko/gmm/internal/log"
	do "github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	injector := do.New(
		config.CLIPackage,
		log.Package,
		core.Package,
		adapters.SecondaryPackage,
		adapters.PrimaryPackage,
	)
	defer func() {
		_ = injector.Shutdown()
	}()

	cmd, err := do.Invoke[*cobra.Command](injector)
	if err != nil {
		return fmt.Errorf("failed to create CLI command: %w", err)
	}

	return cmd.ExecuteContext(context.Background())
}
