package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/activity"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	filters   filterOptions
	Page      int
	PerPage   int
	Grouped   bool
	Ascending bool
}

// LookupRow is one displayed activity or group.
type LookupRow struct {
	ID         int64  `json:"id,omitempty"`
	Time       string `json:"time"`
	Action     string `json:"action"`
	Cause      string `json:"cause,omitempty"`
	Descriptor string `json:"descriptor,omitempty"`
	World      string `json:"world"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Z          int    `json:"z"`
	Count      int64  `json:"count,omitempty"`
	Reversed   bool   `json:"reversed"`
}

// LookupResult is one page of lookup output.
type LookupResult struct {
	Rows  []LookupRow `json:"rows"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Pages int         `json:"pages"`
}

func (r LookupResult) String() string {
	if len(r.Rows) == 0 {
		return "No activities found."
	}
	var b strings.Builder
	for _, row := range r.Rows {
		prefix := fmt.Sprintf("#%d", row.ID)
		if row.Count > 0 {
			prefix = fmt.Sprintf("x%d", row.Count)
		}
		fmt.Fprintf(&b, "%-7s %s  %-14s %-16s %-20s %s %d %d %d",
			prefix, row.Time, row.Action, row.Cause, row.Descriptor, row.World, row.X, row.Y, row.Z)
		if row.Reversed {
			b.WriteString("  (reversed)")
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Page %d of %d (%d total)", r.Page, r.Pages, r.Total)
	return b.String()
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Search recorded activities",
		Long: `Search the activity log, newest first, one page at a time.

Exit codes:
  0 - Lookup succeeded (possibly with no results)
  1 - Query failed
  2 - Command error (invalid flags, config, database unreachable)

Examples:
  prism lookup --db ./prism.db --player Alex --since 2h
  prism lookup --db ./prism.db --at 10,64,-3 --radius 5 --grouped
  prism lookup --db ./prism.db --block minecraft:diamond_ore --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, cmd)
		},
	}

	opts.filters.bind(cmd)
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 10, "results per page")
	cmd.Flags().BoolVarP(&opts.Grouped, "grouped", "g", false, "group similar activities")
	cmd.Flags().BoolVar(&opts.Ascending, "asc", false, "oldest first")

	return cmd
}

func runLookup(opts *LookupOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)

	if opts.Page < 1 || opts.PerPage < 1 {
		return outputError(f, ExitCommandError, ErrCodeConfig,
			fmt.Errorf("--page and --per-page must be positive"))
	}
	b, err := opts.filters.builder(time.Now())
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeConfig, err)
	}
	b.Lookup().Page((opts.Page-1)*opts.PerPage, opts.PerPage)
	if opts.Grouped {
		b.Grouped()
	}
	if opts.Ascending {
		b.Sort(activity.SortAscending)
	}
	q, err := b.Build()
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeConfig, err)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return outputError(f, ExitCommandError, ErrCodeConfig, err)
	}
	st, _, err := opts.openStore(ctx, cmd, cfg)
	if err != nil {
		return outputOpenError(f, err)
	}
	defer st.Close()

	page, err := st.QueryActivitiesPaginated(ctx, q)
	if err != nil {
		return outputError(f, ExitFailure, ErrCodeQuery, err)
	}
	f.VerboseLog("lookup matched %d activities", page.Total)

	result := LookupResult{
		Rows:  make([]LookupRow, 0, len(page.Results)),
		Total: page.Total,
		Page:  page.CurrentPage,
		Pages: page.TotalPages(),
	}
	for _, r := range page.Results {
		result.Rows = append(result.Rows, lookupRow(r))
	}
	return f.Success(result)
}

func lookupRow(r activity.Record) LookupRow {
	var a *activity.Activity
	var count int64
	switch v := r.(type) {
	case *activity.GroupedActivity:
		a, count = &v.Activity, v.Count
	case *activity.Activity:
		a = v
	default:
		return LookupRow{}
	}

	row := LookupRow{
		ID:         a.ID,
		Time:       time.Unix(a.Timestamp, 0).UTC().Format(time.RFC3339),
		Action:     a.Action,
		Descriptor: a.Descriptor,
		World:      a.World.Name,
		X:          a.Coordinate.X,
		Y:          a.Coordinate.Y,
		Z:          a.Coordinate.Z,
		Count:      count,
		Reversed:   a.Reversed,
	}
	if a.Cause != nil {
		row.Cause = a.Cause.Label()
	}
	return row
}
