package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"namecensus/internal/core/records"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/store"
	"namecensus/internal/services/periods/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCH struct {
	execs   []string
	table   string
	data    any
	execErr error
}

func (f *fakeCH) Insert(_ context.Context, table string, data any) error {
	f.table, f.data = table, data
	return nil
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return f.execErr
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeCH) Close() error                                              { return nil }

func TestArchive_WritesRows(t *testing.T) {
	ch := &fakeCH{}
	a := New(ch)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []repo.RowRecord{
		{Raw: [4]string{"Alice", "1", "2", "1990"}, Record: records.Record{ID: "a", Position: 1, Status: records.StatusIncluded}},
		{Raw: [4]string{"Bo", "", "", ""}, Record: records.Record{ID: "b", Position: 2, Status: records.StatusExcluded, Reason: "name too short"}},
	}
	require.NoError(t, a.Archive(context.Background(), "2023", rows, at))
	require.NoError(t, a.Archive(context.Background(), "2023", rows, at))

	// table created once, cleared per call
	creates := 0
	for _, s := range ch.execs {
		if strings.Contains(s, "create table") {
			creates++
		}
	}
	assert.Equal(t, 1, creates)
	assert.Len(t, ch.execs, 3)

	assert.Equal(t, Table, ch.table)
	data, ok := ch.data.([][]any)
	require.True(t, ok)
	require.Len(t, data, 2)
	assert.Equal(t, []any{"2023", "b", uint32(2), "excluded", "Bo", "", "", "", "name too short", at}, data[1])
}

func TestArchive_CreateFailureIsSticky(t *testing.T) {
	ch := &fakeCH{execErr: errors.New("down")}
	a := New(ch)
	err := a.Archive(context.Background(), "p", nil, time.Now())
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))

	ch.execErr = nil
	err = a.Archive(context.Background(), "p", nil, time.Now())
	assert.Error(t, err)
	assert.Len(t, ch.execs, 1)
}
