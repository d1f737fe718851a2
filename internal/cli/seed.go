package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"curriculumcore/internal/core"
)

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file|->",
		Short: "Create the navigation hierarchy described by a YAML seed file",
		Long: `Create tabs, subjects and tables from a YAML file. Existing records with
the same names are reused, so seeding twice creates nothing new.

  admin: true
  tabs:
    - name: Grade 1
      order: 1
      subjects:
        - name: Math
          tables:
            - tableName: grade1-math
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			seed, err := decodeSeed(r)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			return a.withService(cmd, func(svc *core.Service) error {
				res, err := svc.SeedNavigation(cmd.Context(), seed)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "created %d tabs, %d subjects, %d tables",
					res.TabsCreated, res.DropdownItemsCreated, res.TableConfigsCreated)
				return nil
			})
		},
	}
}

func decodeSeed(r io.Reader) (core.NavigationSeed, error) {
	var seed core.NavigationSeed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return core.NavigationSeed{}, err
	}
	return seed, nil
}
