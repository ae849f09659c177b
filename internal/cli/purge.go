package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/purge"
)

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	*RootOptions
	filters   filterOptions
	ChunkSize int64
	All       bool
	DryRun    bool
}

// PurgeResult reports a finished or planned purge.
type PurgeResult struct {
	DryRun  bool  `json:"dry_run"`
	MinID   int64 `json:"min_id"`
	MaxID   int64 `json:"max_id"`
	Deleted int64 `json:"deleted"`
	Cycles  int   `json:"cycles"`
}

func (r PurgeResult) String() string {
	if r.MinID == 0 && r.MaxID == 0 {
		return "No activities match."
	}
	if r.DryRun {
		return fmt.Sprintf("Would purge matching activities with ids %d through %d.", r.MinID, r.MaxID)
	}
	return fmt.Sprintf("Purged %d activities in %d cycles.", r.Deleted, r.Cycles)
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete matching activities in bounded chunks",
		Long: `Delete every activity matching the filters, one primary-key window at a time.

At least one filter is required unless --all is given. Interrupting the
command stops between chunks; rows already deleted stay deleted.

Exit codes:
  0 - Purge finished
  1 - Purge failed or was interrupted part way
  2 - Command error (invalid flags, config, database unreachable)

Examples:
  prism purge --db ./prism.db --before 720h
  prism purge --db ./prism.db --action item-drop --chunk-size 500
  prism purge --db ./prism.db --player Alex --dry-run`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(opts, cmd)
		},
	}

	opts.filters.bind(cmd)
	cmd.Flags().Int64Var(&opts.ChunkSize, "chunk-size", 0, "primary keys per delete (default from config)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "allow purging without filters")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report the matching id range without deleting")

	return cmd
}

func runPurge(opts *PurgeOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)

	if opts.filters.empty() && !opts.All {
		return outputError(f, ExitCommandError, ErrCodeConfig,
			fmt.Errorf("refusing to purge everything: give a filter or --all"))
	}
	b, err := opts.filters.builder(time.Now())
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeConfig, err)
	}
	q, err := b.Build()
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeConfig, err)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeConfig, err)
	}
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = cfg.Purge.ChunkSize
	}

	st, logger, err := opts.openStore(ctx, cmd, cfg)
	if err != nil {
		return outputOpenError(f, err)
	}
	defer st.Close()

	var result PurgeResult
	result.MinID, result.MaxID, err = st.ActivitiesPKBounds(ctx, q)
	if err != nil {
		return outputError(f, ExitFailure, ErrCodePurge, err)
	}
	if opts.DryRun {
		result.DryRun = true
		return f.Success(result)
	}

	cycler := purge.NewCycler(st,
		purge.WithCycleDelay(cfg.Purge.CycleDelay),
		purge.WithLogger(logger),
	)
	res, err := cycler.PurgeInChunks(ctx, purge.SystemOwner, q, chunk, func(p purge.Progress) {
		f.VerboseLog("cycle %d: ids %d-%d, deleted %d (total %d)", p.Cycle, p.Low, p.High, p.Deleted, p.Total)
	})
	result.Deleted, result.Cycles = res.Deleted, res.Cycles
	if err != nil {
		_ = f.Error(ErrCodePurge, err.Error(), result)
		return WrapExitError(ExitFailure, ErrCodePurge, err)
	}
	return f.Success(result)
}
