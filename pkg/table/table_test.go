package table

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"rqlite/pkg/data"
	"rqlite/pkg/pager"
)

func testRow(id uint64) *data.Row {
	return &data.Row{
		ID:          id,
		Name:        fmt.Sprintf("user%d", id),
		Description: fmt.Sprintf("description of user%d", id),
	}
}

func collectRows(t *testing.T, tbl *Table) []*data.Row {
	t.Helper()

	rows := []*data.Row{}
	err := tbl.SelectAll(func(r *data.Row) (bool, error) {
		rows = append(rows, r)
		return false, nil
	})
	require.NoError(t, err)
	return rows
}

func TestPersistenceAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	tbl, err := Open(path)
	require.NoError(t, err)
	for id := uint64(1); id <= 14; id++ {
		require.NoError(t, tbl.Insert(testRow(id)))
	}
	require.NoError(t, tbl.Close())

	tbl, err = Open(path)
	require.NoError(t, err)
	defer tbl.Close()

	rows := collectRows(t, tbl)
	require.Len(t, rows, 14)

	ids := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	require.True(t, slices.IsSorted(ids))
	require.Equal(t, testRow(1), rows[0])
	require.Equal(t, testRow(14), rows[13])
}

func TestPageAccounting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	tbl, err := Open(path)
	require.NoError(t, err)
	for id := uint64(1); id <= 14; id++ {
		require.NoError(t, tbl.Insert(testRow(id)))
	}
	require.NoError(t, tbl.Close())

	// One insert past the leaf max splits the root into three pages.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 3*pager.PageSize, info.Size())
}

func TestSelectAllOnEmptyTable(t *testing.T) {
	tbl, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer tbl.Close()

	require.Empty(t, collectRows(t, tbl))
}

func TestSelectAllStopsEarly(t *testing.T) {
	tbl, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer tbl.Close()

	for id := uint64(1); id <= 5; id++ {
		require.NoError(t, tbl.Insert(testRow(id)))
	}

	seen := 0
	err = tbl.SelectAll(func(r *data.Row) (bool, error) {
		seen++
		return seen == 2, nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, seen)
}

func TestFindOnEmptyTable(t *testing.T) {
	tbl, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer tbl.Close()

	cursor, err := tbl.Find(5)
	require.NoError(t, err)
	require.True(t, cursor.EndOfTable())
}

func TestConstants(t *testing.T) {
	tbl, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer tbl.Close()

	require.Equal(t, Constants{
		RowSize:               296,
		NodeHeaderSize:        10,
		LeafNodeHeaderSize:    14,
		LeafNodeCellSize:      304,
		LeafNodeSpaceForCells: 4082,
		LeafNodeCellMaxNum:    13,
	}, tbl.Constants())
}

func TestDumpTree(t *testing.T) {
	tbl, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer tbl.Close()

	for id := uint64(1); id <= 3; id++ {
		require.NoError(t, tbl.Insert(testRow(id)))
	}

	buf := &bytes.Buffer{}
	require.NoError(t, tbl.DumpTree(buf))
	require.Equal(t, "- leaf (size 3)\n  - 1\n  - 2\n  - 3\n", buf.String())
}
