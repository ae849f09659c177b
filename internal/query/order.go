package query

import (
	"strings"

	"github.com/roach88/prism/internal/activity"
)

// DependentBlocks are blocks that need a neighboring block to exist. Replay
// places them after ordinary blocks, top-down, so their anchor is already
// present.
var DependentBlocks = []string{
	"vine",
	"cave_vines",
	"cave_vines_plant",
	"weeping_vines",
	"weeping_vines_plant",
	"hanging_roots",
	"spore_blossom",
	"pointed_dripstone",
}

// replayOrder is the ORDER BY for modification queries:
//
//  1. ordinary blocks (-1) before dependent blocks (1)
//  2. cave_vines_plant before cave_vines
//  3. ordinary blocks by Y ascending, dependent blocks by Y descending
//  4. X and Z ascending, then timestamp and id
func replayOrder(dir activity.SortDirection) []string {
	dependent := "b.name IN (" + quoteList(DependentBlocks) + ")"
	return []string{
		"CASE WHEN " + dependent + " THEN 1 ELSE -1 END ASC",
		"CASE b.name WHEN 'cave_vines_plant' THEN 0 WHEN 'cave_vines' THEN 1 ELSE 2 END ASC",
		"CASE WHEN " + dependent + " THEN -a.y ELSE a.y END ASC",
		"a.x ASC",
		"a.z ASC",
		"a.timestamp " + dir.String(),
		"a.activity_id " + dir.String(),
	}
}

func defaultOrder(dir activity.SortDirection) []string {
	return []string{
		"a.timestamp " + dir.String(),
		"a.activity_id " + dir.String(),
	}
}

func groupedOrder(dir activity.SortDirection) []string {
	return []string{
		ColAvgTimestamp + " " + dir.String(),
		ColAction + " ASC",
	}
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ", ")
}
