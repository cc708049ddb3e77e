package commands

import (
	"context"
	"fmt"

	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/format/ascii"
	"github.com/spf13/cobra"
)

func Config(appInstance *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "GitLab connection settings",
	}

	cmd.AddCommand(
		newConfigShowCommand(appInstance),
		newConfigSetCommand(appInstance),
	)

	return cmd
}

func newConfigShowCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active GitLab connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, ok := appInstance.Profile()

			out, err := ascii.FormatProfile(p, ok)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}
}

func newConfigSetCommand(appInstance *app.App) *cobra.Command {
	var baseURL, token string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the GitLab base URL and access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := appInstance.SetProfile(context.Background(), baseURL, token)
			if err != nil {
				return fmt.Errorf("failed to save connection: %w", err)
			}

			out, err := ascii.FormatProfile(p, true)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "GitLab base URL, e.g. https://gitlab.example.com")
	cmd.Flags().StringVar(&token, "token", "", "personal access token with api scope")
	_ = cmd.MarkFlagRequired("base-url")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}
