// Package table exposes the database façade: it owns the pager and the
// B+ tree index and is the only surface the command services talk to.
package table

import (
	"io"

	"github.com/pkg/errors"

	"rqlite/pkg/bptree"
	"rqlite/pkg/data"
	"rqlite/pkg/pager"
	"rqlite/util/logger"
)

// Table is a handle to one open database file.
type Table struct {
	path  string
	pager *pager.Pager
	tree  *bptree.BPlusTree
}

// Constants describes the storage layout for the .constants diagnostic.
type Constants struct {
	RowSize               int
	NodeHeaderSize        int
	LeafNodeHeaderSize    int
	LeafNodeCellSize      int
	LeafNodeSpaceForCells int
	LeafNodeCellMaxNum    int
}

// Open opens (creating if necessary) the database at path. An empty file
// is bootstrapped with page 0 as an empty root leaf.
func Open(path string) (*Table, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}

	tree, err := bptree.New(p)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	logger.C("table").WithField("path", path).Debug("database opened")
	return &Table{path: path, pager: p, tree: tree}, nil
}

// Insert adds the row under its id.
func (t *Table) Insert(r *data.Row) error {
	return errors.Wrapf(t.tree.Insert(r), "failed to insert row %d", r.ID)
}

// SelectAll visits every row in ascending key order until fn asks to
// stop by returning true.
func (t *Table) SelectAll(fn func(r *data.Row) (bool, error)) error {
	return t.tree.Scan(fn)
}

// Find positions a cursor at key, or at the slot key would occupy.
func (t *Table) Find(key uint64) (*bptree.Cursor, error) {
	return t.tree.Find(key)
}

// Constants reports the storage layout constants.
func (t *Table) Constants() Constants {
	return Constants{
		RowSize:               data.RowSize,
		NodeHeaderSize:        bptree.NodeHeaderSize,
		LeafNodeHeaderSize:    bptree.LeafNodeHeaderSize,
		LeafNodeCellSize:      bptree.LeafNodeCellSize,
		LeafNodeSpaceForCells: bptree.LeafNodeSpaceForCells,
		LeafNodeCellMaxNum:    bptree.LeafNodeCellMaxNum,
	}
}

// DumpTree writes the diagnostic tree rendering to w.
func (t *Table) DumpTree(w io.Writer) error {
	return t.tree.Dump(w)
}

// Close flushes every cached page and closes the backing file.
func (t *Table) Close() error {
	if err := t.pager.Close(); err != nil {
		return err
	}
	logger.C("table").WithField("path", t.path).Debug("database closed")
	return nil
}
