package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/activity"
)

// filterOptions are the activity filters shared by lookup and purge.
type filterOptions struct {
	Actions   []string
	Players   []string
	Causes    []string
	Blocks    []string
	Materials []string
	Entities  []string
	World     string
	At        string
	Radius    int
	Since     time.Duration
	Before    time.Duration
}

func (f *filterOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&f.Actions, "action", "a", nil, "action keys, e.g. block-break")
	flags.StringSliceVarP(&f.Players, "player", "p", nil, "causing player names")
	flags.StringSliceVar(&f.Causes, "cause", nil, "named causes, e.g. tnt")
	flags.StringSliceVarP(&f.Blocks, "block", "b", nil, "affected blocks, e.g. minecraft:stone")
	flags.StringSliceVarP(&f.Materials, "material", "m", nil, "affected item materials")
	flags.StringSliceVarP(&f.Entities, "entity", "e", nil, "affected entity types")
	flags.StringVarP(&f.World, "world", "w", "", "world uuid")
	flags.StringVar(&f.At, "at", "", "center coordinate x,y,z")
	flags.IntVarP(&f.Radius, "radius", "r", 0, "radius around --at (0 matches the exact block)")
	flags.DurationVar(&f.Since, "since", 0, "only activities newer than this, e.g. 2h")
	flags.DurationVar(&f.Before, "before", 0, "only activities older than this")
}

// empty reports whether no filter was given.
func (f *filterOptions) empty() bool {
	return len(f.Actions) == 0 && len(f.Players) == 0 && len(f.Causes) == 0 &&
		len(f.Blocks) == 0 && len(f.Materials) == 0 && len(f.Entities) == 0 &&
		f.World == "" && f.At == "" && f.Since == 0 && f.Before == 0
}

// builder translates the flags into a query builder. now anchors the
// relative --since and --before durations.
func (f *filterOptions) builder(now time.Time) (*activity.QueryBuilder, error) {
	b := activity.NewQuery().
		Actions(f.Actions...).
		CausePlayers(f.Players...).
		Causes(f.Causes...).
		Blocks(f.Blocks...).
		Materials(f.Materials...).
		EntityTypes(f.Entities...)

	if f.World != "" {
		id, err := uuid.Parse(f.World)
		if err != nil {
			return nil, fmt.Errorf("invalid --world %q: %w", f.World, err)
		}
		b.World(id)
	}

	if f.At != "" {
		c, err := parseCoordinate(f.At)
		if err != nil {
			return nil, err
		}
		if f.Radius > 0 {
			b.Radius(c, f.Radius)
		} else {
			b.At(c)
		}
	} else if f.Radius > 0 {
		return nil, fmt.Errorf("--radius requires --at")
	}

	if f.Since > 0 {
		b.After(now.Add(-f.Since).Unix())
	}
	if f.Before > 0 {
		b.Before(now.Add(-f.Before).Unix())
	}
	return b, nil
}

// parseCoordinate parses "x,y,z".
func parseCoordinate(s string) (activity.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return activity.Coordinate{}, fmt.Errorf("invalid coordinate %q: want x,y,z", s)
	}
	var xyz [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return activity.Coordinate{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		xyz[i] = n
	}
	return activity.Coordinate{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
