package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateResult reports the schema after migration.
type MigrateResult struct {
	Dialect string `json:"dialect"`
	Prefix  string `json:"prefix"`
	Version int    `json:"version"`
}

func (r MigrateResult) String() string {
	return fmt.Sprintf("%s schema (prefix %q) is at version %d", r.Dialect, r.Prefix, r.Version)
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the activity log schema",
		Long: `Apply every pending schema migration. Running it again is a no-op.

Exit codes:
  0 - Schema is current
  2 - Command error (config invalid, database unreachable, schema too new)

Examples:
  prism migrate --db ./prism.db
  prism migrate --config ./prism.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeConfig, err)
	}
	cfg.Database.AutoMigrate = true

	st, _, err := opts.openStore(ctx, cmd, cfg)
	if err != nil {
		return outputOpenError(f, err)
	}
	defer st.Close()

	version, err := st.SchemaVersion(ctx)
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeOpen, err)
	}
	return f.Success(MigrateResult{
		Dialect: string(st.Dialect()),
		Prefix:  st.Registry().Prefix(),
		Version: version,
	})
}
