package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/activity"
	"github.com/roach88/prism/internal/dimension"
	"github.com/roach88/prism/internal/store"
)

// CacheRow is one dimension cache in the stats output.
type CacheRow struct {
	dimension.Stats
	HitRatio float64 `json:"hit_ratio"`
}

// StatsResult describes the store's schema, tables and caches.
type StatsResult struct {
	Dialect string             `json:"dialect"`
	Prefix  string             `json:"prefix"`
	Version int                `json:"version"`
	MinID   int64              `json:"min_id"`
	MaxID   int64              `json:"max_id"`
	Tables  []store.TableCount `json:"tables"`
	Caches  []CacheRow         `json:"caches"`
}

func (r StatsResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s schema (prefix %q) at version %d\n", r.Dialect, r.Prefix, r.Version)
	if r.MaxID == 0 {
		b.WriteString("No activities recorded.\n")
	} else {
		fmt.Fprintf(&b, "Activity ids %d through %d\n", r.MinID, r.MaxID)
	}
	b.WriteString("\nTables:\n")
	for _, t := range r.Tables {
		fmt.Fprintf(&b, "  %-24s %d\n", t.Table, t.Rows)
	}
	b.WriteString("\nCaches:\n")
	for _, c := range r.Caches {
		fmt.Fprintf(&b, "  %-14s %d/%d  hits %d  misses %d  evictions %d  ratio %.2f\n",
			c.Name, c.Size, c.Capacity, c.Hits, c.Misses, c.Evictions, c.HitRatio)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show table sizes and dimension cache counters",
		Long: `Report the schema version, the activity id range, the row count of every
table and a snapshot of each dimension cache.

Exit codes:
  0 - Stats reported
  1 - A count query failed
  2 - Command error (config invalid, database unreachable)

Examples:
  prism stats --db ./prism.db
  prism stats --config ./prism.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeConfig, err)
	}
	st, _, err := opts.openStore(ctx, cmd, cfg)
	if err != nil {
		return outputOpenError(f, err)
	}
	defer st.Close()

	result := StatsResult{Dialect: string(st.Dialect()), Prefix: st.Registry().Prefix()}
	if result.Version, err = st.SchemaVersion(ctx); err != nil {
		return outputError(f, ExitFailure, ErrCodeQuery, err)
	}
	if result.MinID, result.MaxID, err = st.ActivitiesPKBounds(ctx, activity.Query{}); err != nil {
		return outputError(f, ExitFailure, ErrCodeQuery, err)
	}
	if result.Tables, err = st.TableCounts(ctx); err != nil {
		return outputError(f, ExitFailure, ErrCodeQuery, err)
	}
	for _, s := range st.CacheStats() {
		result.Caches = append(result.Caches, CacheRow{Stats: s, HitRatio: s.HitRatio()})
	}
	return f.Success(result)
}
