package queryset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowset/client"
	"github.com/roach88/rowset/internal/testutil"
	"github.com/roach88/rowset/memclient"
	"github.com/roach88/rowset/model"
	"github.com/roach88/rowset/predicate"
	"github.com/roach88/rowset/queryset"
)

// item is the fixture entity shared by these tests.
type item struct {
	model.Base
	Name string `json:"name,omitempty"`
	Age  int    `json:"age,omitempty"`
}

// spyClient wraps a real client and counts dispatched operations, so
// tests can assert that refinement alone never touches the backend.
type spyClient struct {
	client.Client
	calls int
}

func (s *spyClient) Select(ctx context.Context, q client.Query) ([]client.Row, error) {
	s.calls++
	return s.Client.Select(ctx, q)
}

func (s *spyClient) Count(ctx context.Context, q client.Query) (int, error) {
	s.calls++
	return s.Client.Count(ctx, q)
}

// newItems returns a query set over the seeded items fixture.
func newItems(t *testing.T) *queryset.QuerySet[*item] {
	t.Helper()
	store := testutil.SeedItems(t)
	return queryset.New[*item](testutil.ItemsTable, store, model.NewJSONAdapter[*item]())
}

func itemNames(items []*item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestRefinement_IsLazy(t *testing.T) {
	spy := &spyClient{Client: testutil.SeedItems(t)}
	qs := queryset.New[*item](testutil.ItemsTable, spy, model.NewJSONAdapter[*item]())

	refined := qs.
		Filter(queryset.Lookups{"age__gte": 20}).
		Exclude(queryset.Lookups{"name": "B"}).
		OrderBy("name", false).
		Limit(10).
		Offset(0)

	assert.Zero(t, spy.calls, "refinement must not dispatch")

	_, err := refined.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, spy.calls)

	// Terminal operations re-query; nothing is cached.
	_, err = refined.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, spy.calls)
}

func TestRefinement_ForksAreIndependent(t *testing.T) {
	ctx := context.Background()
	base := newItems(t).Filter(queryset.Lookups{"age": 20})

	byName := base.Filter(queryset.Lookups{"name": "B"})
	desc := base.OrderBy("name", true)

	got, err := byName.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, itemNames(got))

	got, err = desc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, itemNames(got))

	// The shared prefix is untouched by either fork.
	n, err := base.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFilter_OrderIsCommutative(t *testing.T) {
	ctx := context.Background()

	ab, err := newItems(t).
		Filter(queryset.Lookups{"age": 20}).
		Filter(queryset.Lookups{"name": "C"}).
		All(ctx)
	require.NoError(t, err)

	ba, err := newItems(t).
		Filter(queryset.Lookups{"name": "C"}).
		Filter(queryset.Lookups{"age": 20}).
		All(ctx)
	require.NoError(t, err)

	assert.Equal(t, itemNames(ab), itemNames(ba))
	assert.Equal(t, []string{"C"}, itemNames(ab))
}

func TestExclude_EquivalentToNegatedFilter(t *testing.T) {
	// Each operator pair must round-trip: excluding gt(10) selects
	// exactly what filtering lte(10) selects, and so on.
	testCases := []struct {
		name    string
		exclude queryset.Lookups
		filter  queryset.Lookups
	}{
		{"gt excluded is lte", queryset.Lookups{"age__gt": 10}, queryset.Lookups{"age__lte": 10}},
		{"gte excluded is lt", queryset.Lookups{"age__gte": 20}, queryset.Lookups{"age__lt": 20}},
		{"lt excluded is gte", queryset.Lookups{"age__lt": 20}, queryset.Lookups{"age__gte": 20}},
		{"lte excluded is gt", queryset.Lookups{"age__lte": 10}, queryset.Lookups{"age__gt": 10}},
	}

	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			excluded, err := newItems(t).Exclude(tc.exclude).All(ctx)
			require.NoError(t, err)
			filtered, err := newItems(t).Filter(tc.filter).All(ctx)
			require.NoError(t, err)

			assert.Equal(t, itemNames(filtered), itemNames(excluded))
		})
	}
}

func TestExclude_EqualityAndMembership(t *testing.T) {
	ctx := context.Background()

	got, err := newItems(t).Exclude(queryset.Lookups{"age": 20}).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, itemNames(got))

	got, err = newItems(t).Exclude(queryset.Lookups{"name__in": []string{"A", "C"}}).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, itemNames(got))
}

func TestCount_EqualsMaterializedLength(t *testing.T) {
	ctx := context.Background()

	chains := []func(*queryset.QuerySet[*item]) *queryset.QuerySet[*item]{
		func(qs *queryset.QuerySet[*item]) *queryset.QuerySet[*item] { return qs },
		func(qs *queryset.QuerySet[*item]) *queryset.QuerySet[*item] {
			return qs.Filter(queryset.Lookups{"age__gte": 20})
		},
		func(qs *queryset.QuerySet[*item]) *queryset.QuerySet[*item] {
			return qs.Exclude(queryset.Lookups{"name": "B"}).Limit(1)
		},
		func(qs *queryset.QuerySet[*item]) *queryset.QuerySet[*item] {
			return qs.OrderBy("age", true).Offset(2)
		},
	}

	for i, chain := range chains {
		qs := chain(newItems(t))

		all, err := qs.All(ctx)
		require.NoError(t, err, "chain %d", i)
		n, err := qs.Count(ctx)
		require.NoError(t, err, "chain %d", i)

		assert.Equal(t, len(all), n, "chain %d", i)
	}
}

func TestGet_ExactlyOne(t *testing.T) {
	ctx := context.Background()

	got, err := newItems(t).Get(ctx, queryset.Lookups{"name": "B"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.PK())
	assert.Equal(t, 20, got.Age)
}

func TestGet_ZeroMatchesIsNotFound(t *testing.T) {
	_, err := newItems(t).Get(context.Background(), queryset.Lookups{"name": "missing"})
	require.Error(t, err)

	assert.True(t, queryset.IsNotFound(err))
	assert.False(t, queryset.IsMultipleObjects(err))
	assert.Contains(t, err.Error(), "items")
}

func TestGet_SeveralMatchesIsMultipleObjects(t *testing.T) {
	_, err := newItems(t).Get(context.Background(), queryset.Lookups{"age": 20})
	require.Error(t, err)

	require.True(t, queryset.IsMultipleObjects(err))
	var me *queryset.MultipleObjectsError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 2, me.Count)
}

func TestFirstLast_Ordering(t *testing.T) {
	ctx := context.Background()

	first, ok, err := newItems(t).First(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", first.Name)

	// Unordered: backend iteration order, insertion order in memory.
	last, ok, err := newItems(t).Last(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "C", last.Name)

	last, ok, err = newItems(t).OrderBy("name", true).Last(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", last.Name)
}

func TestFirstLast_EmptySet(t *testing.T) {
	ctx := context.Background()
	empty := newItems(t).Filter(queryset.Lookups{"age__gt": 1000})

	_, ok, err := empty.First(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = empty.Last(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFirstLast_ZeroLimitIsEmpty(t *testing.T) {
	// Limit(0) makes the materialization empty; every terminal must
	// agree, First included.
	ctx := context.Background()
	qs := newItems(t).Limit(0)

	all, err := qs.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	n, err := qs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := qs.First(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = qs.Last(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFirst_KeepsWiderLimitNarrow(t *testing.T) {
	// An explicit limit wider than one still yields the first row.
	first, ok, err := newItems(t).OrderBy("name", true).Limit(2).First(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "C", first.Name)
}

func TestExists(t *testing.T) {
	ctx := context.Background()

	ok, err := newItems(t).Filter(queryset.Lookups{"age": 20}).Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = newItems(t).Filter(queryset.Lookups{"age": 99}).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate_PatchesMatchingRows(t *testing.T) {
	ctx := context.Background()
	store := testutil.SeedItems(t)
	qs := queryset.New[*item](testutil.ItemsTable, store, model.NewJSONAdapter[*item]())

	n, err := qs.Filter(queryset.Lookups{"age": 20}).Update(ctx, client.Row{"age": 21})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Untouched rows keep their values.
	got, err := qs.Get(ctx, queryset.Lookups{"name": "A"})
	require.NoError(t, err)
	assert.Equal(t, 10, got.Age)
}

func TestUpdate_RefusesPrimaryKeyPatch(t *testing.T) {
	_, err := newItems(t).Update(context.Background(), client.Row{"id": 9, "age": 21})
	require.ErrorIs(t, err, queryset.ErrPatchPrimaryKey)
}

func TestDelete_RemovesExactlyMatchingRows(t *testing.T) {
	ctx := context.Background()
	store := testutil.SeedItems(t)
	qs := queryset.New[*item](testutil.ItemsTable, store, model.NewJSONAdapter[*item]())

	n, err := qs.Filter(queryset.Lookups{"age": 20}).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := qs.Filter(queryset.Lookups{"age": 20}).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Non-matching rows survive.
	remaining, err := qs.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, itemNames(remaining))
}

func TestCreate_ThenGetByID(t *testing.T) {
	ctx := context.Background()
	qs := newItems(t)

	created, err := qs.Create(ctx, client.Row{"name": "D", "age": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.PK())

	fetched, err := qs.Get(ctx, queryset.Lookups{"id": created.PK()})
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestGetOrCreate_CreatesThenFinds(t *testing.T) {
	ctx := context.Background()
	qs := newItems(t)

	created, fresh, err := qs.GetOrCreate(ctx, queryset.Lookups{"name": "D"}, client.Row{"age": 5})
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, int64(4), created.PK())
	assert.Equal(t, 5, created.Age)

	again, fresh, err := qs.GetOrCreate(ctx, queryset.Lookups{"name": "D"}, client.Row{"age": 99})
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, int64(4), again.PK())
	assert.Equal(t, 5, again.Age, "existing row is returned, defaults unused")
}

func TestGetOrCreate_RejectsNonEqualityLookup(t *testing.T) {
	_, _, err := newItems(t).GetOrCreate(context.Background(), queryset.Lookups{"age__gte": 5}, nil)
	require.Error(t, err)

	var ce *queryset.CreateLookupError
	assert.ErrorAs(t, err, &ce)
}

func TestOrderLimitOffset_LastWriteWins(t *testing.T) {
	ctx := context.Background()

	got, err := newItems(t).OrderBy("age", true).OrderBy("name", false).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, itemNames(got))

	got, err = newItems(t).Limit(3).Limit(1).All(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = newItems(t).Offset(0).Offset(2).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, itemNames(got))
}

func TestStickyRefinementErrors(t *testing.T) {
	ctx := context.Background()
	bad := newItems(t).Filter(queryset.Lookups{"age__approx": 5})

	_, err := bad.All(ctx)
	require.Error(t, err)
	assert.True(t, predicate.IsUnknownLookup(err))

	// Every terminal surfaces the same deferred error.
	_, err = bad.Count(ctx)
	assert.True(t, predicate.IsUnknownLookup(err))
	_, err = bad.Delete(ctx)
	assert.True(t, predicate.IsUnknownLookup(err))
	_, err = bad.Update(ctx, client.Row{"age": 1})
	assert.True(t, predicate.IsUnknownLookup(err))

	// Chaining past the failure keeps it sticky.
	_, err = bad.Filter(queryset.Lookups{"name": "A"}).All(ctx)
	assert.True(t, predicate.IsUnknownLookup(err))
}

func TestNegativeBounds(t *testing.T) {
	_, err := newItems(t).Limit(-1).All(context.Background())
	require.Error(t, err)

	var be *queryset.BoundsError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "limit", be.Kind)
}

// The concrete scenario from the data-layer contract, end to end.
func TestItemsScenario(t *testing.T) {
	ctx := context.Background()
	store := testutil.SeedItems(t)
	qs := queryset.New[*item](testutil.ItemsTable, store, model.NewJSONAdapter[*item]())

	n, err := qs.Filter(queryset.Lookups{"age__gte": 20}).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, ok, err := qs.Exclude(queryset.Lookups{"age__gte": 20}).First(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", first.Name)

	got, err := qs.Filter(queryset.Lookups{"age": 20}).OrderBy("name", true).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, itemNames(got))

	created, fresh, err := qs.GetOrCreate(ctx, queryset.Lookups{"name": "D"}, client.Row{"age": 5})
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, int64(4), created.PK())

	again, fresh, err := qs.GetOrCreate(ctx, queryset.Lookups{"name": "D"}, client.Row{"age": 5})
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, int64(4), again.PK())
}

// Guard against regressions in the memclient/queryset pairing: the
// same store serves multiple query sets over different tables.
func TestQuerySetsOverSeparateTables(t *testing.T) {
	ctx := context.Background()
	store := memclient.New()
	adapter := model.NewJSONAdapter[*item]()

	itemsQS := queryset.New[*item]("items", store, adapter)
	othersQS := queryset.New[*item]("others", store, adapter)

	_, err := itemsQS.Create(ctx, client.Row{"name": "A", "age": 1})
	require.NoError(t, err)

	n, err := othersQS.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
