package cli

import (
	"github.com/denchenko/gmm/internal/adapters/primary/cli/commands"
	"github.com/denchenko/gmm/internal/core/app"
	do "github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Command creates and returns the root CLI command.
func Command(i do.Injector) (*cobra.Command, error) {
	appInstance := do.MustInvoke[*app.App](i)

	return NewRoot(appInstance), nil
}

// NewRoot builds the command tree around an application instance.
func NewRoot(appInstance *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gmm",
		Long:          `A CLI tool for managing members of GitLab projects.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		commands.Config(appInstance),
		commands.Project(appInstance),
		commands.Member(appInstance),
		commands.Roster(appInstance),
		commands.Group(appInstance),
	)

	return cmd
}
