package commands

import (
	"context"
	"fmt"

	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/denchenko/gmm/internal/format/ascii"
	"github.com/denchenko/gmm/internal/log"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

func Project(appInstance *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "GitLab projects",
	}

	cmd.AddCommand(
		newProjectSearchCommand(appInstance),
		newProjectOpenCommand(appInstance),
	)

	return cmd
}

func newProjectSearchCommand(appInstance *app.App) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "search [KEYWORD]",
		Short: "Search projects, most recently active first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePaging(page, perPage); err != nil {
				return err
			}

			var keyword string
			if len(args) > 0 {
				keyword = args[0]
			}

			result, err := log.Spin("Searching projects...", func() (*domain.Page[domain.ProjectSummary], error) {
				return appInstance.SearchProjects(context.Background(), keyword, page, perPage)
			})
			if err != nil {
				return err
			}

			out, err := ascii.FormatProjects(result)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", defaultPerPage, "items per page")

	return cmd
}

func newProjectOpenCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "open PROJECT",
		Short: "Open the members page of a project in your browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := domain.ParseProjectRef(args[0])
			if err != nil {
				return err
			}

			p, ok := appInstance.Profile()
			if !ok {
				return domain.ErrProfileNotSet
			}

			target := membersPageURL(p.BaseURL, ref)
			if err := open.Start(target); err != nil {
				return fmt.Errorf("failed to open browser: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", target)

			return nil
		},
	}
}
