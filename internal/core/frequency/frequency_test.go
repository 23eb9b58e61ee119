package frequency

import (
	"fmt"
	"testing"

	"namecensus/internal/core/normalize"
	"namecensus/internal/core/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(pos int, name string) records.Record {
	return records.Record{
		ID:       fmt.Sprintf("r%d", pos),
		Position: pos,
		Name:     name,
		Status:   records.StatusIncluded,
	}
}

func mixedCaseSet() *records.Set {
	rs := []records.Record{
		{ID: "r1", Position: 1, Name: "ALICE", Day: "1", Month: "1", Year: "1990", Status: records.StatusIncluded},
		{ID: "r2", Position: 2, Name: "alice", Day: "2", Month: "1", Year: "1990", Status: records.StatusIncluded},
		{ID: "r3", Position: 3, Name: "BOB", Day: "3", Month: "2", Year: "1991", Status: records.StatusIncluded},
		{ID: "r4", Position: 4, Name: "ALICE", Day: "4", Month: "1", Year: "1992", Status: records.StatusIncluded},
	}
	return records.NewSet("a", rs)
}

func counts(t *Table) map[string]int {
	m := make(map[string]int, t.Len())
	for _, e := range t.Entries {
		m[e.Key] = e.Count
	}
	return m
}

func TestExactModeIsCaseSensitive(t *testing.T) {
	tbl := Analyze(mixedCaseSet(), normalize.Exact, records.FieldName)

	assert.Equal(t, map[string]int{"ALICE": 2, "alice": 1, "BOB": 1}, counts(tbl))
	require.Len(t, tbl.Entries, 3)
	// ties broken by byte order, uppercase first
	assert.Equal(t, []string{"ALICE", "BOB", "alice"}, []string{tbl.Entries[0].Key, tbl.Entries[1].Key, tbl.Entries[2].Key})
	assert.Equal(t, []int{1, 2, 3}, []int{tbl.Entries[0].Rank, tbl.Entries[1].Rank, tbl.Entries[2].Rank})
	assert.Equal(t, 4, tbl.Total)
	// 2/4 then 3/4 fit, 4/4 does not
	assert.Equal(t, 2, tbl.CoverageLen())
	assert.Equal(t, 3, tbl.CoveredRecords())
}

func TestNormalizedModeFoldsCase(t *testing.T) {
	tbl := Analyze(mixedCaseSet(), normalize.Normalized, records.FieldName)

	assert.Equal(t, map[string]int{"alice": 3, "bob": 1}, counts(tbl))
	// alice alone is 75 percent
	require.Equal(t, 1, tbl.CoverageLen())
	assert.Equal(t, "alice", tbl.Coverage()[0].Key)

	r, ok := tbl.CoverageRank("alice")
	assert.True(t, ok)
	assert.Equal(t, 1, r)
	assert.False(t, tbl.InCoverage("bob"))
	assert.True(t, tbl.Has("bob"))
	assert.False(t, tbl.Has("carol"))
}

func TestEmptySet(t *testing.T) {
	tbl := Analyze(records.NewSet("empty", nil), normalize.Normalized, records.FieldName)
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Coverage())
	assert.Equal(t, 0, tbl.Total)
	assert.Equal(t, 0, tbl.CoveredRecords())
}

func TestSingleDominantKey(t *testing.T) {
	var rs []records.Record
	for i := 1; i <= 9; i++ {
		rs = append(rs, rec(i, "Ann"))
	}
	rs = append(rs, rec(10, "Ben"))
	tbl := Analyze(records.NewSet("p", rs), normalize.Exact, records.FieldName)

	require.Equal(t, 1, tbl.CoverageLen())
	assert.Equal(t, "Ann", tbl.Coverage()[0].Key)
	assert.InDelta(t, 0.9, tbl.Coverage()[0].CumulativeFraction, 1e-9)
}

func TestMissingNamesSkipped(t *testing.T) {
	rs := []records.Record{rec(1, "Ann"), rec(2, ""), rec(3, "Ann")}
	tbl := Analyze(records.NewSet("p", rs), normalize.Exact, records.FieldName)
	assert.Equal(t, 2, tbl.Total)
	assert.Equal(t, 1, tbl.Len())
}

func TestExactEightyPercentBoundaryIncluded(t *testing.T) {
	// 4 of 5 records is exactly 0.8
	rs := []records.Record{rec(1, "Ann"), rec(2, "Ann"), rec(3, "Ann"), rec(4, "Ann"), rec(5, "Ben")}
	tbl := Analyze(records.NewSet("p", rs), normalize.Exact, records.FieldName)
	assert.Equal(t, 1, tbl.CoverageLen())

	rs = []records.Record{rec(1, "Ann"), rec(2, "Ann"), rec(3, "Ben"), rec(4, "Ben"), rec(5, "Cy")}
	tbl = Analyze(records.NewSet("p", rs), normalize.Exact, records.FieldName)
	assert.Equal(t, 2, tbl.CoverageLen())
}

func TestCoverageProperties(t *testing.T) {
	names := []string{"Ann", "Ben", "Cy", "Dee", "Eve", "Fay", "Gus"}
	var rs []records.Record
	pos := 0
	// skewed distribution: name i appears 2^(len-i) times
	for i, n := range names {
		for j := 0; j < 1<<(len(names)-i); j++ {
			pos++
			rs = append(rs, rec(pos, n))
		}
	}
	rs = append(rs, rec(pos+1, ""))
	tbl := Analyze(records.NewSet("p", rs), normalize.Exact, records.FieldName)

	sum := 0
	for _, e := range tbl.Entries {
		sum += e.Count
	}
	assert.Equal(t, pos, sum, "conservation")
	assert.Equal(t, pos, tbl.Total)

	cov := tbl.Coverage()
	require.NotEmpty(t, cov)
	for i, e := range cov {
		assert.LessOrEqual(t, e.CumulativeFraction, CoverageThreshold)
		if i > 0 {
			assert.LessOrEqual(t, e.Count, cov[i-1].Count)
			assert.GreaterOrEqual(t, e.CumulativeFraction, cov[i-1].CumulativeFraction)
		}
	}
	if len(cov) < tbl.Len() {
		assert.Greater(t, tbl.Entries[len(cov)].CumulativeFraction, CoverageThreshold, "maximality")
	}
}

func TestFromCountsMatchesAnalyze(t *testing.T) {
	tbl := FromCounts(map[string]int{"alice": 3, "bob": 1}, normalize.Normalized, records.FieldName)
	want := Analyze(mixedCaseSet(), normalize.Normalized, records.FieldName)
	assert.Equal(t, want.Entries, tbl.Entries)
	assert.Equal(t, want.CoverageLen(), tbl.CoverageLen())
}

func TestPercent(t *testing.T) {
	assert.Nil(t, Percent(1, 0))
	p := Percent(1, 3)
	require.NotNil(t, p)
	assert.Equal(t, 33.33, *p)
	p = Percent(2, 3)
	require.NotNil(t, p)
	assert.Equal(t, 66.67, *p)
	p = Percent(1, 2)
	require.NotNil(t, p)
	assert.Equal(t, 50.0, *p)
}
