package bptree

import (
	"bytes"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"rqlite/pkg/customerrors"
	"rqlite/pkg/data"
	"rqlite/pkg/pager"
	"rqlite/util/helpers"
)

func newTestTree(t *testing.T) *BPlusTree {
	t.Helper()

	p, err := pager.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	tree, err := New(p)
	require.NoError(t, err)
	return tree
}

func testRow(key uint64) *data.Row {
	return &data.Row{
		ID:          key,
		Name:        fmt.Sprintf("user%d", key),
		Description: fmt.Sprintf("description of user%d", key),
	}
}

func insertKeys(t *testing.T, tree *BPlusTree, keys ...uint64) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, tree.Insert(testRow(key)), "insert %d", key)
	}
}

func scanKeys(t *testing.T, tree *BPlusTree) []uint64 {
	t.Helper()

	keys := []uint64{}
	err := tree.Scan(func(r *data.Row) (bool, error) {
		keys = append(keys, r.ID)
		return false, nil
	})
	require.NoError(t, err)
	return keys
}

func sequence(from, to uint64) []uint64 {
	keys := make([]uint64, 0, to-from+1)
	for key := from; key <= to; key++ {
		keys = append(keys, key)
	}
	return keys
}

func TestFillRootLeafWithoutSplit(t *testing.T) {
	tree := newTestTree(t)
	insertKeys(t, tree, sequence(1, LeafNodeCellMaxNum)...)

	require.Equal(t, uint32(1), tree.pager.Count())
	require.Equal(t, sequence(1, LeafNodeCellMaxNum), scanKeys(t, tree))
}

func TestRootLeafSplit(t *testing.T) {
	tree := newTestTree(t)
	insertKeys(t, tree, sequence(1, 14)...)

	require.Equal(t, uint32(3), tree.pager.Count())
	require.Equal(t, sequence(1, 14), scanKeys(t, tree))

	buf := &bytes.Buffer{}
	require.NoError(t, tree.Dump(buf))
	require.Equal(t, `- internal (size 1)
  - leaf (size 7)
    - 1
    - 2
    - 3
    - 4
    - 5
    - 6
    - 7
  - key 7
  - leaf (size 7)
    - 8
    - 9
    - 10
    - 11
    - 12
    - 13
    - 14
`, buf.String())
}

func TestSearchThroughInternalNode(t *testing.T) {
	tree := newTestTree(t)
	insertKeys(t, tree, sequence(1, 15)...)

	require.Equal(t, sequence(1, 15), scanKeys(t, tree))

	for _, key := range []uint64{1, 7, 8, 15} {
		cursor, err := tree.Find(key)
		require.NoError(t, err)
		row, err := cursor.Value()
		require.NoError(t, err)
		require.Equal(t, key, row.ID)
	}
}

func TestOutOfOrderInserts(t *testing.T) {
	tree := newTestTree(t)
	keys := []uint64{100, 50, 75, 2, 120}
	insertKeys(t, tree, keys...)

	got := scanKeys(t, tree)
	require.Equal(t, []uint64{2, 50, 75, 100, 120}, got)
	require.Equal(t, helpers.Min(keys...), got[0])
	require.Equal(t, helpers.Max(keys...), got[len(got)-1])
}

func TestRandomOrderStaysSorted(t *testing.T) {
	tree := newTestTree(t)

	r := rand.New(rand.NewSource(42))
	for _, i := range r.Perm(LeafNodeCellMaxNum) {
		require.NoError(t, tree.Insert(testRow(uint64(i)+1)))
	}

	got := scanKeys(t, tree)
	require.Len(t, got, LeafNodeCellMaxNum)
	require.True(t, slices.IsSorted(got))
}

func TestDuplicateKeyRejected(t *testing.T) {
	tree := newTestTree(t)
	insertKeys(t, tree, 1, 2)

	err := tree.Insert(testRow(1))
	require.ErrorIs(t, err, customerrors.ErrDuplicateKey)
	require.Equal(t, []uint64{1, 2}, scanKeys(t, tree))
}

func TestDuplicateKeyRejectedAfterSplit(t *testing.T) {
	tree := newTestTree(t)
	insertKeys(t, tree, sequence(1, 14)...)

	for _, key := range []uint64{1, 7, 8, 14} {
		require.ErrorIs(t, tree.Insert(testRow(key)), customerrors.ErrDuplicateKey)
	}
	require.Equal(t, sequence(1, 14), scanKeys(t, tree))
}

func TestNonRootLeafSplitIsRejected(t *testing.T) {
	tree := newTestTree(t)

	// Sequential inserts fill the right leaf after the first split; the
	// 21st key would split a non-root leaf.
	insertKeys(t, tree, sequence(1, 20)...)

	err := tree.Insert(testRow(21))
	require.ErrorIs(t, err, customerrors.ErrTableFull)
	require.Equal(t, sequence(1, 20), scanKeys(t, tree))
	require.Equal(t, uint32(3), tree.pager.Count())
}

func TestLeafChain(t *testing.T) {
	tree := newTestTree(t)
	insertKeys(t, tree, sequence(1, 14)...)

	// Walk the chain directly from the leftmost leaf.
	cursor, err := tree.Start()
	require.NoError(t, err)

	first, err := tree.node(cursor.pageNum)
	require.NoError(t, err)
	require.Equal(t, kindLeaf, first.kind())

	visited := []uint64{}
	for pageNum := cursor.pageNum; pageNum != 0; {
		n, err := tree.node(pageNum)
		require.NoError(t, err)
		for i := uint32(0); i < n.numCells(); i++ {
			visited = append(visited, n.leafKey(i))
		}
		pageNum = n.nextLeaf()
	}

	require.Equal(t, sequence(1, 14), visited)
}

func TestStartOnEmptyTree(t *testing.T) {
	tree := newTestTree(t)

	cursor, err := tree.Start()
	require.NoError(t, err)
	require.True(t, cursor.EndOfTable())
	require.Empty(t, scanKeys(t, tree))
}

func TestFindReportsInsertionPoint(t *testing.T) {
	tree := newTestTree(t)
	insertKeys(t, tree, 10, 20)

	cursor, err := tree.Find(15)
	require.NoError(t, err)
	require.False(t, cursor.EndOfTable())
	require.Equal(t, uint32(1), cursor.cellIdx)

	cursor, err = tree.Find(99)
	require.NoError(t, err)
	require.True(t, cursor.EndOfTable())
}
