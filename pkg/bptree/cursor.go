package bptree

import (
	"github.com/pkg/errors"

	"rqlite/pkg/data"
)

// Cursor is a position within the tree: a page number plus a cell index.
// It deliberately holds no reference into page images, so pages can be
// reacquired mid-operation without invalidating the cursor.
type Cursor struct {
	tree       *BPlusTree
	pageNum    uint32
	cellIdx    uint32
	endOfTable bool
}

// EndOfTable reports whether the cursor has moved past the last cell.
func (c *Cursor) EndOfTable() bool {
	return c.endOfTable
}

// Value decodes the row stored in the cell under the cursor.
func (c *Cursor) Value() (*data.Row, error) {
	n, err := c.tree.node(c.pageNum)
	if err != nil {
		return nil, err
	}

	r := &data.Row{}
	if err := r.UnmarshalBinary(n.leafRow(c.cellIdx)); err != nil {
		return nil, errors.Wrapf(err, "failed to decode cell %d of page %d", c.cellIdx, c.pageNum)
	}
	return r, nil
}

// Advance moves the cursor one cell forward, following the leaf chain
// across page boundaries. The terminal leaf has no next leaf, so the
// cursor becomes end-of-table there.
func (c *Cursor) Advance() error {
	n, err := c.tree.node(c.pageNum)
	if err != nil {
		return err
	}

	c.cellIdx++
	if c.cellIdx < n.numCells() {
		return nil
	}

	next := n.nextLeaf()
	if next == 0 {
		c.endOfTable = true
		return nil
	}

	c.pageNum = next
	c.cellIdx = 0
	return nil
}
