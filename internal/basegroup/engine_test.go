package basegroup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basegroupapp/basegroup-server/internal/domain"
	domainerrors "github.com/basegroupapp/basegroup-server/internal/errors"
)

// testDataset builds a small dataset in the shape the loader produces.
func testDataset(rows []map[string]string) *domain.Dataset {
	records := make([]domain.Record, len(rows))
	for i, row := range rows {
		records[i] = domain.Record{Fields: row}
	}
	return &domain.Dataset{
		ID:           "ds-test",
		Name:         "test.csv",
		Columns:      []string{"base", "checker", "owner"},
		BaseColumn:   "base",
		StatusColumn: "checker",
		Records:      records,
		LoadedAt:     time.Now(),
	}
}

func loadedEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine("-US-")
	ds := testDataset([]map[string]string{
		{"base": "20221-US-LY", "checker": "Approved", "owner": "ana"},
		{"base": "20221-US-NF", "checker": "Not Approved", "owner": "ben"},
		{"base": "20232-US-LY", "checker": "Not in time", "owner": "ana"},
		{"base": "20233-US-NF", "checker": "Approved", "owner": "cat"},
		{"base": "oddball", "checker": "", "owner": "dee"},
	})
	require.NoError(t, e.Rebuild(ds))
	return e
}

func TestRebuild_GroupsAndFlags(t *testing.T) {
	e := loadedEngine(t)

	keys := e.Index().Keys()
	assert.Equal(t, []string{"LY", "NF", "ODDBALL"}, keys)

	// Raw without the marker keeps its own key but is flagged ungrouped.
	recs := e.FilterByBase("ODDBALL")
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Ungrouped)
}

func TestRebuild_Idempotent(t *testing.T) {
	e := NewEngine("-US-")
	rows := []map[string]string{
		{"base": "20221-US-LY", "checker": "Approved"},
		{"base": "20232-US-LY", "checker": "Approved"},
	}

	require.NoError(t, e.Rebuild(testDataset(rows)))
	first := e.Groups()

	require.NoError(t, e.Rebuild(testDataset(rows)))
	second := e.Groups()

	assert.Equal(t, first, second)
}

func TestRebuild_MissingBaseColumn(t *testing.T) {
	e := NewEngine("-US-")
	ds := testDataset([]map[string]string{{"owner": "ana"}})
	ds.BaseColumn = ""

	err := e.Rebuild(ds)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrMissingBaseColumn))

	// The failure is surfaced once at rebuild; queries stay quiet.
	assert.Empty(t, e.FilterByBase("LY"))
	assert.Zero(t, e.Stats("LY").Count)
}

func TestFilterByBase_KeyUnionInDatasetOrder(t *testing.T) {
	e := loadedEngine(t)

	recs := e.FilterByBase("LY")
	require.Len(t, recs, 2)
	assert.Equal(t, "20221-US-LY", recs[0].RawBase)
	assert.Equal(t, "20232-US-LY", recs[1].RawBase)
	assert.Less(t, recs[0].Index, recs[1].Index)
}

func TestFilterByBase_RawNameExactMatch(t *testing.T) {
	e := loadedEngine(t)

	recs := e.FilterByBase("20221-US-NF")
	require.Len(t, recs, 1)
	assert.Equal(t, "20221-US-NF", recs[0].RawBase)
}

func TestFilterByBase_UnknownIsEmptyNotError(t *testing.T) {
	e := loadedEngine(t)
	assert.Empty(t, e.FilterByBase("ZZ"))
}

func TestCombine_DeduplicatesAndKeepsDatasetOrder(t *testing.T) {
	e := loadedEngine(t)

	// "LY" and a raw name already covered by "LY" must not double count.
	recs := e.Combine([]string{"LY", "20221-US-LY", "NF"})
	require.Len(t, recs, 4)
	for i := 1; i < len(recs); i++ {
		assert.Less(t, recs[i-1].Index, recs[i].Index)
	}

	seen := make(map[int]bool)
	for _, rec := range recs {
		assert.False(t, seen[rec.Index], "record %d returned twice", rec.Index)
		seen[rec.Index] = true
	}
}

func TestSearch_PartialVsExact(t *testing.T) {
	e := loadedEngine(t)

	partial := e.Search(SearchQuery{Term: "us", Mode: ModePartial})
	assert.Len(t, partial, 4, "substring match hits every marker-bearing base name")

	exact := e.Search(SearchQuery{Term: "us", Mode: ModeExact})
	assert.Empty(t, exact, "no field equals the bare term")

	exactOwner := e.Search(SearchQuery{Term: "ana", Mode: ModeExact})
	assert.Len(t, exactOwner, 2)
}

func TestSearch_CaseInsensitiveAndOrdered(t *testing.T) {
	e := loadedEngine(t)

	recs := e.Search(SearchQuery{Term: "APPROVED", Mode: ModePartial})
	require.Len(t, recs, 3)
	for i := 1; i < len(recs); i++ {
		assert.Less(t, recs[i-1].Index, recs[i].Index)
	}
}

func TestSearch_EmptyTermMatchesNothing(t *testing.T) {
	e := loadedEngine(t)
	assert.Empty(t, e.Search(SearchQuery{Term: "  ", Mode: ModePartial}))
}

func TestStats_CountsSumToTotal(t *testing.T) {
	e := loadedEngine(t)

	for _, key := range e.Index().Keys() {
		st := e.Stats(key)
		assert.Equal(t, st.Count, st.ApprovedCount+st.DeniedCount+st.OtherCount,
			"key %s: buckets must sum to count", key)
	}

	ly := e.Stats("LY")
	assert.Equal(t, 2, ly.Count)
	assert.Equal(t, 1, ly.ApprovedCount)
	assert.Equal(t, 0, ly.DeniedCount)
	assert.Equal(t, 1, ly.OtherCount, "'Not in time' buckets to other")
}

func TestStats_UnknownKeyIsZero(t *testing.T) {
	e := loadedEngine(t)
	st := e.Stats("ZZ")
	assert.Zero(t, st.Count)
	assert.Zero(t, st.ApprovedCount+st.DeniedCount+st.OtherCount)
}

func TestStatsAll_TotalsAndPercentages(t *testing.T) {
	e := loadedEngine(t)

	all := e.StatsAll()
	assert.Equal(t, 5, all.Totals.Count)

	var pct float64
	for _, ks := range all.Keys {
		pct += ks.Percent
	}
	assert.InDelta(t, 100.0, pct, 0.001)
}

func TestFilterByStatus(t *testing.T) {
	e := loadedEngine(t)

	denied := e.FilterByStatus(domain.StatusDenied)
	require.Len(t, denied, 1)
	assert.Equal(t, "20221-US-NF", denied[0].RawBase)
}

func TestRecords_Paging(t *testing.T) {
	e := loadedEngine(t)

	page, total := e.Records(1, 2)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, 1, page[0].Index)
	assert.Equal(t, 2, page[1].Index)

	tail, _ := e.Records(4, 10)
	assert.Len(t, tail, 1)

	past, _ := e.Records(99, 10)
	assert.Empty(t, past)
}

func TestEmptyDataset_QueriesNeverFail(t *testing.T) {
	e := NewEngine("-US-")
	require.NoError(t, e.Rebuild(testDataset(nil)))

	assert.Empty(t, e.FilterByBase("LY"))
	assert.Empty(t, e.Combine([]string{"LY", "NF"}))
	assert.Empty(t, e.Search(SearchQuery{Term: "us", Mode: ModePartial}))
	assert.Zero(t, e.Stats("LY").Count)
	assert.Empty(t, e.StatsAll().Keys)
	assert.Empty(t, e.Groups())

	page, total := e.Records(0, 10)
	assert.Empty(t, page)
	assert.Zero(t, total)
}

func TestNoDatasetLoaded_QueriesNeverFail(t *testing.T) {
	e := NewEngine("-US-")
	assert.Empty(t, e.FilterByBase("LY"))
	assert.Zero(t, e.Stats("LY").Count)
	assert.Nil(t, e.Dataset())
}
