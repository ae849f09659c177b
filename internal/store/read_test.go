package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prism/internal/activity"
	fixtures "github.com/roach88/prism/internal/testutil"
)

// seedMixed writes one activity of every shape:
//
//	1 block-break stone by Alex (0,64,0) t=100
//	2 block-place dirt by Steve (5,64,5) t=200
//	3 item-drop diamond by hopper (10,70,10) t=300
//	4 entity-kill pig by zombie (0,64,0) t=400
//	5 block-break stone by Alex in the nether (0,64,0) t=500
//	6 item-drop arrow by dispenser (20,20,20) t=600
//	7 player-join Steve by Steve (0,0,0) t=700
func seedMixed(t *testing.T, s *Store) {
	t.Helper()

	nether := fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 0, 64, 0, 500)
	nether.World = fixtures.Nether

	dispensed := fixtures.ItemDrop("arrow", 1, 20, 20, 20, 600)
	dispensed.Cause = activity.BlockCause{Namespace: "minecraft", Name: "dispenser"}

	steve := fixtures.Steve
	join := &activity.Activity{
		Timestamp: 700,
		World:     fixtures.Overworld,
		Action:    "player-join",
		Player:    &steve,
		Cause:     activity.PlayerCause{UUID: steve.UUID, Name: steve.Name},
	}

	writeActivities(t, s,
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 0, 64, 0, 100),
		fixtures.BlockPlace(fixtures.Steve, fixtures.BlockNamed("dirt"), 5, 64, 5, 200),
		fixtures.ItemDrop("diamond", 2, 10, 70, 10, 300),
		fixtures.EntityKill("pig", "zombie", 0, 64, 0, 400),
		nether,
		dispensed,
		join,
	)
}

func TestQueryActivities_Filters(t *testing.T) {
	s := createTestStore(t)
	seedMixed(t, s)

	testCases := []struct {
		name  string
		build func(b *activity.QueryBuilder)
		want  []int64
	}{
		{"everything", func(b *activity.QueryBuilder) {}, []int64{1, 2, 3, 4, 5, 6, 7}},
		{"action", func(b *activity.QueryBuilder) { b.Actions("item-drop") }, []int64{3, 6}},
		{"world", func(b *activity.QueryBuilder) { b.World(fixtures.Nether.UUID) }, []int64{5}},
		{"point", func(b *activity.QueryBuilder) { b.At(activity.Coordinate{X: 0, Y: 64, Z: 0}) }, []int64{1, 4, 5}},
		{"box", func(b *activity.QueryBuilder) {
			b.Between(activity.Coordinate{X: 10, Y: 70, Z: 10}, activity.Coordinate{X: 0, Y: 60, Z: 0})
		}, []int64{1, 2, 3, 4, 5}},
		{"radius", func(b *activity.QueryBuilder) { b.Radius(activity.Coordinate{X: 20, Y: 20, Z: 20}, 1) }, []int64{6}},
		{"time range", func(b *activity.QueryBuilder) { b.After(200).Before(400) }, []int64{2, 3, 4}},
		{"after", func(b *activity.QueryBuilder) { b.After(500) }, []int64{5, 6, 7}},
		{"before", func(b *activity.QueryBuilder) { b.Before(100) }, []int64{1}},
		{"material", func(b *activity.QueryBuilder) { b.Materials("diamond") }, []int64{3}},
		{"block", func(b *activity.QueryBuilder) { b.Blocks("stone") }, []int64{1, 5}},
		{"qualified block", func(b *activity.QueryBuilder) { b.Blocks("minecraft:stone", "minecraft:dirt") }, []int64{1, 2, 5}},
		{"entity type", func(b *activity.QueryBuilder) { b.EntityTypes("pig") }, []int64{4}},
		{"affected player", func(b *activity.QueryBuilder) { b.AffectedPlayers("Steve") }, []int64{7}},
		{"cause player", func(b *activity.QueryBuilder) { b.CausePlayers("Alex") }, []int64{1, 5}},
		{"named cause", func(b *activity.QueryBuilder) { b.Causes("hopper") }, []int64{3}},
		{"cause entity", func(b *activity.QueryBuilder) { b.CauseEntityTypes("zombie") }, []int64{4}},
		{"cause block", func(b *activity.QueryBuilder) { b.CauseBlocks("minecraft:dispenser") }, []int64{6}},
		{"combined", func(b *activity.QueryBuilder) { b.AffectedPlayers("Steve").CausePlayers("Steve") }, []int64{7}},
		{"no match", func(b *activity.QueryBuilder) { b.Actions("block-burn") }, []int64{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := activity.NewQuery().Sort(activity.SortAscending)
			tc.build(b)
			q, err := b.Build()
			require.NoError(t, err)

			records, err := s.QueryActivities(context.Background(), q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(activities(t, records)))
		})
	}
}

func TestQueryActivities_BlockNamespaces(t *testing.T) {
	s := createTestStore(t)
	writeActivities(t, s,
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 0, 64, 0, 100),
		fixtures.BlockBreak(fixtures.Alex, &activity.Block{Namespace: "othermod", Name: "stone"}, 1, 64, 0, 200),
	)

	testCases := []struct {
		blocks []string
		want   []int64
	}{
		{[]string{"stone"}, []int64{1, 2}},
		{[]string{"minecraft:stone"}, []int64{1}},
		{[]string{"othermod:stone"}, []int64{2}},
		{[]string{"othermod:stone", "minecraft:stone"}, []int64{1, 2}},
	}

	for _, tc := range testCases {
		t.Run(strings.Join(tc.blocks, ","), func(t *testing.T) {
			q, err := activity.NewQuery().Blocks(tc.blocks...).Sort(activity.SortAscending).Build()
			require.NoError(t, err)

			records, err := s.QueryActivities(context.Background(), q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(activities(t, records)))

			low, high, err := s.ActivitiesPKBounds(context.Background(), q)
			require.NoError(t, err)
			assert.Equal(t, tc.want[0], low)
			assert.Equal(t, tc.want[len(tc.want)-1], high)
		})
	}
}

func TestQueryActivities_DefaultOrderIsNewestFirst(t *testing.T) {
	s := createTestStore(t)
	seedMixed(t, s)

	records, err := s.QueryActivities(context.Background(), activity.Query{})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 6, 5, 4, 3, 2, 1}, ids(activities(t, records)))
}

func TestQueryActivities_CausesOnlyOnLookup(t *testing.T) {
	s := createTestStore(t)
	seedMixed(t, s)
	ctx := context.Background()

	plain, err := s.QueryActivities(ctx, activity.Query{ActivityIDs: []int64{1}})
	require.NoError(t, err)
	require.Len(t, plain, 1)
	assert.Nil(t, activities(t, plain)[0].Cause)

	lookup, err := s.QueryActivities(ctx, activity.Query{ActivityIDs: []int64{1}, Lookup: true})
	require.NoError(t, err)
	require.Len(t, lookup, 1)
	assert.Equal(t, activity.PlayerCause{UUID: fixtures.Alex.UUID, Name: "Alex"}, activities(t, lookup)[0].Cause)
}

func TestQueryActivities_Grouped(t *testing.T) {
	s := createTestStore(t)
	writeActivities(t, s,
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 0, 64, 0, 100),
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 2, 64, 0, 200),
		fixtures.ItemDrop("diamond", 1, 9, 9, 9, 50),
	)

	records, err := s.QueryActivities(context.Background(), activity.Query{Grouped: true})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first, ok := records[0].(*activity.GroupedActivity)
	require.True(t, ok)
	assert.Equal(t, int64(2), first.Count)
	assert.Equal(t, "block-break", first.Action)
	assert.Equal(t, activity.Coordinate{X: 1, Y: 64, Z: 0}, first.Coordinate)
	assert.Equal(t, int64(150), first.Timestamp)
	assert.Equal(t, "stone", first.Block.Name)
	assert.Zero(t, first.ID)

	second := records[1].(*activity.GroupedActivity)
	assert.Equal(t, int64(1), second.Count)
	assert.Equal(t, "item-drop", second.Action)
}

func TestQueryActivities_GroupedFloorsAverages(t *testing.T) {
	s := createTestStore(t)
	writeActivities(t, s,
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), -1, 10, 0, 100),
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), -2, 11, 0, 101),
	)

	records, err := s.QueryActivities(context.Background(), activity.Query{Grouped: true})
	require.NoError(t, err)
	require.Len(t, records, 1)

	g := records[0].(*activity.GroupedActivity)
	assert.Equal(t, activity.Coordinate{X: -2, Y: 10, Z: 0}, g.Coordinate)
	assert.Equal(t, int64(100), g.Timestamp)
}

func TestQueryActivities_ReplayOrder(t *testing.T) {
	s := createTestStore(t)
	writeActivities(t, s,
		fixtures.BlockBreak(fixtures.Alex, fixtures.BlockNamed("vine"), 0, 5, 0, 100),
		fixtures.BlockBreak(fixtures.Alex, fixtures.BlockNamed("vine"), 0, 6, 0, 101),
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 0, 4, 0, 110),
		fixtures.BlockBreak(fixtures.Alex, fixtures.BlockNamed("dirt"), 0, 3, 0, 120),
	)

	q, err := activity.NewQuery().Modification(false).Build()
	require.NoError(t, err)
	records, err := s.QueryActivities(context.Background(), q)
	require.NoError(t, err)

	acts := activities(t, records)
	require.Len(t, acts, 4)
	assert.Equal(t, []int64{4, 3, 2, 1}, ids(acts))
	assert.Equal(t, "dirt", acts[0].Block.Name)
	assert.Equal(t, "stone", acts[1].Block.Name)
}

func TestQueryActivities_SkipsUnknownActions(t *testing.T) {
	logger, logs := captureLogger()
	s := createTestStore(t, WithLogger(logger))

	unknown := fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 0, 0, 0, 150)
	unknown.Action = "retired-action"
	writeActivities(t, s,
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 0, 0, 0, 100),
		unknown,
		fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), 0, 0, 0, 200),
	)

	records, err := s.QueryActivities(context.Background(), activity.Query{})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(activities(t, records)))
	assert.Contains(t, logs.String(), "skipping activity with unknown action type")
	assert.Contains(t, logs.String(), "retired-action")
}

func TestQueryActivitiesPaginated(t *testing.T) {
	s := createTestStore(t)
	acts := make([]*activity.Activity, 25)
	for i := range acts {
		acts[i] = fixtures.BlockBreak(fixtures.Alex, fixtures.Stone(), i, 64, 0, int64(100+i))
	}
	writeActivities(t, s, acts...)
	ctx := context.Background()

	testCases := []struct {
		offset  int
		page    int
		size    int
		hasNext bool
	}{
		{0, 1, 10, true},
		{10, 2, 10, true},
		{20, 3, 5, false},
	}

	for _, tc := range testCases {
		q := activity.Query{Offset: tc.offset, Limit: 10, Sort: activity.SortAscending}
		page, err := s.QueryActivitiesPaginated(ctx, q)
		require.NoError(t, err)

		assert.Len(t, page.Results, tc.size)
		assert.Equal(t, int64(25), page.Total)
		assert.Equal(t, 3, page.TotalPages())
		assert.Equal(t, tc.page, page.CurrentPage)
		assert.Equal(t, tc.hasNext, page.HasNext())
		assert.Equal(t, int64(tc.offset+1), activities(t, page.Results)[0].ID)
	}

	past, err := s.QueryActivitiesPaginated(ctx, activity.Query{Offset: 30, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, past.Results)
	assert.Zero(t, past.Total)
}

func TestQueryActivitiesPaginated_Grouped(t *testing.T) {
	s := createTestStore(t)
	seedMixed(t, s)

	page, err := s.QueryActivitiesPaginated(context.Background(), activity.Query{Grouped: true, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Results, 2)
	assert.Equal(t, int64(7), page.Total)
}

func TestActivity_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Activity(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, isNoRows(err))
}

func TestQueryActivities_InvalidQuery(t *testing.T) {
	s := createTestStore(t)

	_, err := s.QueryActivities(context.Background(), activity.Query{Grouped: true, Modification: true})
	assert.ErrorIs(t, err, activity.ErrConflictingModes)
}
