package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/config"
	"github.com/roach88/prism/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides database.path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the prism CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "prism",
		Short: "Prism - activity log storage",
		Long:  "Administer a prism activity log: migrate the schema, look up, purge and inspect recorded activities.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite database path (overrides config)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// formatter returns the output formatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadConfig reads the configuration and applies command-line overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if o.Database != "" {
		cfg.Database.Path = o.Database
		cfg.Database.DSN = ""
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// openStore opens the configured store with a logger writing to stderr.
func (o *RootOptions) openStore(ctx context.Context, cmd *cobra.Command, cfg config.Config) (*store.Store, *slog.Logger, error) {
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	st, err := store.Open(ctx, cfg.Database,
		store.WithLogger(logger),
		store.WithCacheCapacities(cfg.Cache),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return st, logger, nil
}

// outputError reports err through the formatter and returns it with an
// exit code for main.
func outputError(f *OutputFormatter, exitCode int, code string, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exitCode, code, err)
}

// ConnectDetails is the error detail for an unreachable database.
type ConnectDetails struct {
	Address string   `json:"address"`
	Hints   []string `json:"hints"`
}

func (d ConnectDetails) String() string {
	return fmt.Sprintf("address %s; check: %s", d.Address, strings.Join(d.Hints, "; "))
}

// outputOpenError reports a failed store open. Connection failures carry
// the address and the diagnostic checklist.
func outputOpenError(f *OutputFormatter, err error) error {
	var ce *store.ConnectError
	if errors.As(err, &ce) {
		_ = f.Error(ErrCodeOpen, err.Error(), ConnectDetails{Address: ce.Address, Hints: ce.Hints()})
		return WrapExitError(ExitCommandError, ErrCodeOpen, err)
	}
	return outputError(f, ExitCommandError, ErrCodeOpen, err)
}
