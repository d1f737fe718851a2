// Package cli builds the curriculumd command tree.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"curriculumcore/internal/config"
)

// NewRootCommand returns the curriculumd root command with every
// subcommand attached.
func NewRootCommand(version string) *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "curriculumd",
		Short: "Curriculum content store and navigation service",
		Long: `curriculumd serves and maintains curriculum content: the tab, subject and
table navigation hierarchy, curriculum rows, standards and the school year.

Examples:

  curriculumd serve --addr :8080
  curriculumd export -o backup.json
  curriculumd import backup.json
  curriculumd seed navigation.yaml
`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML config file")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file to load (default: .env when present)")
	flags.String("storage", "", "Storage driver: sqlite|postgres|memory")
	flags.String("sqlite-path", "", "SQLite database file")
	flags.String("postgres-dsn", "", "PostgreSQL connection string")
	flags.String("log-level", "", "Log level: debug|info|warn|error")
	bindFlag(a.v, "storage.driver", rootCmd, "storage")
	bindFlag(a.v, "storage.sqlite_path", rootCmd, "sqlite-path")
	bindFlag(a.v, "storage.postgres_dsn", rootCmd, "postgres-dsn")
	bindFlag(a.v, "log.level", rootCmd, "log-level")

	rootCmd.AddCommand(
		newServeCommand(a),
		newExportCommand(a),
		newImportCommand(a),
		newValidateCommand(a),
		newCleanupCommand(a),
		newSeedCommand(a),
		newBackupsCommand(a),
	)
	return rootCmd
}

// bindFlag binds a persistent or local flag of cmd to key. Unset flags keep
// the config and env value.
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	flag := cmd.PersistentFlags().Lookup(name)
	if flag == nil {
		flag = cmd.Flags().Lookup(name)
	}
	_ = v.BindPFlag(key, flag)
}
