package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"curriculumcore/internal/core"
)

func newBackupsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Inspect and manage the snapshot archive",
	}

	var kind string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withArchive(cmd, func(_ *core.Service, archive *core.Archive) error {
				infos, err := archive.List(cmd.Context(), core.ArchiveKind(kind))
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "KEY\tSIZE\tROWS\tCREATED")
				for _, info := range infos {
					_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", info.Key, info.Size, info.Metadata["curriculum-rows"], info.LastModified.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}
	listCmd.Flags().StringVar(&kind, "kind", "", "Only list export or backup entries")

	var keep int
	var pruneKind string
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest archived snapshots of a kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withArchive(cmd, func(_ *core.Service, archive *core.Archive) error {
				removed, err := archive.Prune(cmd.Context(), core.ArchiveKind(pruneKind), keep)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "%d archived snapshots removed", removed)
				return nil
			})
		},
	}
	pruneCmd.Flags().IntVar(&keep, "keep", 10, "Number of snapshots to keep")
	pruneCmd.Flags().StringVar(&pruneKind, "kind", string(core.ArchiveBackup), "Archive kind to prune")

	restoreCmd := &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the dataset with an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(cmd, func(svc *core.Service, _ *core.Archive) error {
				res, err := svc.RestoreArchived(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), res.Summary)
				printOK(cmd.OutOrStdout(), "restored %s", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, pruneCmd, restoreCmd)
	return cmd
}

func (a *app) withArchive(cmd *cobra.Command, fn func(*core.Service, *core.Archive) error) error {
	if !a.cfg.ArchiveEnabled {
		return fmt.Errorf("snapshot archive disabled (archive.enabled=false)")
	}
	return a.withService(cmd, func(svc *core.Service) error {
		return fn(svc, svc.Archive())
	})
}
