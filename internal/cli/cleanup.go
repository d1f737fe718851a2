package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"curriculumcore/internal/core"
)

func newCleanupCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "cleanup-orphans",
		Short: "Delete curriculum rows whose table no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(svc *core.Service) error {
				out := cmd.OutOrStdout()
				if dryRun {
					rows, err := svc.FindOrphanedRows(cmd.Context())
					if err != nil {
						return err
					}
					for _, row := range rows {
						_, _ = fmt.Fprintf(out, "  - row %d (%s / %s) table %q\n", row.ID, row.Grade, row.Subject, row.TableName)
					}
					printOK(out, "%d orphaned rows found", len(rows))
					return nil
				}
				removed, _, err := svc.CleanupOrphanedRows(cmd.Context())
				if err != nil {
					return err
				}
				printOK(out, "%d orphaned rows removed", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphaned rows without deleting them")
	return cmd
}
