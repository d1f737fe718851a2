package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"curriculumcore/internal/core"
	"curriculumcore/internal/snapshot"
)

func newExportCommand(a *app) *cobra.Command {
	var output string
	var archive bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the full dataset as a snapshot document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(svc *core.Service) error {
				if archive {
					info, err := svc.ArchiveSnapshot(cmd.Context(), core.ArchiveExport)
					if err != nil {
						return err
					}
					printOK(cmd.ErrOrStderr(), "archived %s (%d bytes)", info.Key, info.Size)
					return nil
				}
				snap, err := svc.ExportSnapshot(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer func() { _ = f.Close() }()
					w = f
				}
				if err := snapshot.Encode(w, snap); err != nil {
					return err
				}
				printOK(cmd.ErrOrStderr(), "exported %d curriculum rows and %d standards",
					snap.Metadata.TotalCurriculumEntries, snap.Metadata.TotalStandards)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&archive, "archive", false, "Write to the snapshot archive instead of a file")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var noBackup bool
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Validate a snapshot document and replace the dataset with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noBackup {
				a.cfg.BackupBeforeImport = false
			}
			r, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			return a.withService(cmd, func(svc *core.Service) error {
				res, err := svc.ImportSnapshot(cmd.Context(), r)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.Backup != nil {
					_, _ = infoColor.Fprintf(out, "backup written to %s\n", res.Backup.Key)
				}
				printSummary(out, res.Summary)
				printOK(out, "imported %d curriculum rows and %d standards (navigation replaced: %t)",
					res.Applied.CurriculumRows, res.Applied.Standards, res.Applied.Navigation)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the pre-import backup")
	return cmd
}

func newValidateCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check a snapshot document without touching storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			payload, err := snapshot.ReadPayload(r)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			sum, err := snapshot.Validate(payload)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			printOK(cmd.OutOrStdout(), "snapshot is valid")
			return nil
		},
	}
}

func openInput(cmd *cobra.Command, name string) (io.Reader, func(), error) {
	if name == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func printSummary(w io.Writer, sum snapshot.Summary) {
	_, _ = infoColor.Fprintf(w, "grades: %d  subjects: %d  rows: %d  standards: %d\n",
		sum.GradeCount, sum.SubjectCount, sum.CurriculumRows, sum.Standards)
	if sum.HasNavigation {
		_, _ = infoColor.Fprintf(w, "tabs: %d  dropdowns: %d  tables: %d\n",
			sum.NavigationTabs, sum.DropdownItems, sum.TableConfigs)
	}
}
