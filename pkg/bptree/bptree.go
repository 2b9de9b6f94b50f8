// Package bptree implements the key-ordered index of the store: a B+
// tree whose nodes live directly on pager pages. The root is anchored at
// page 0 and keeps that page number for the lifetime of the file, even
// when its kind changes from leaf to internal.
package bptree

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"rqlite/pkg/customerrors"
	"rqlite/pkg/data"
	"rqlite/pkg/pager"
)

const rootPageNum = uint32(0)

// BPlusTree is the on-page B+ tree. Each node occupies exactly one page;
// traversal is by page number through the pager.
type BPlusTree struct {
	pager *pager.Pager
	root  uint32
}

// New attaches a tree to the pager, bootstrapping page 0 as an empty
// root leaf when the backing file is empty.
func New(p *pager.Pager) (*BPlusTree, error) {
	tree := &BPlusTree{pager: p, root: rootPageNum}

	if p.Count() == 0 {
		page, err := p.Alloc()
		if err != nil {
			return nil, errors.Wrap(err, "failed to allocate root page")
		}
		root := initLeaf(page)
		root.setIsRoot(true)
	}

	return tree, nil
}

func (t *BPlusTree) node(pageNum uint32) (node, error) {
	page, err := t.pager.Page(pageNum)
	if err != nil {
		return node{}, err
	}
	return view(page)
}

// Find returns a cursor at the position key occupies or would occupy:
// the first leaf cell whose key is >= key.
func (t *BPlusTree) Find(key uint64) (*Cursor, error) {
	pageNum := t.root
	for {
		n, err := t.node(pageNum)
		if err != nil {
			return nil, err
		}

		if n.kind() == kindLeaf {
			idx := n.leafSearch(key)
			return &Cursor{
				tree:       t,
				pageNum:    pageNum,
				cellIdx:    idx,
				endOfTable: idx == n.numCells(),
			}, nil
		}

		pageNum = n.child(n.internalSearch(key))
	}
}

// Start returns a cursor at the smallest key: the first cell of the
// leftmost leaf.
func (t *BPlusTree) Start() (*Cursor, error) {
	pageNum := t.root
	for {
		n, err := t.node(pageNum)
		if err != nil {
			return nil, err
		}

		if n.kind() == kindLeaf {
			return &Cursor{
				tree:       t,
				pageNum:    pageNum,
				endOfTable: n.numCells() == 0,
			}, nil
		}

		pageNum = n.child(0)
	}
}

// Insert adds the row under its id, keeping leaf cells in strictly
// ascending key order.
func (t *BPlusTree) Insert(r *data.Row) error {
	cursor, err := t.Find(r.ID)
	if err != nil {
		return err
	}

	leaf, err := t.node(cursor.pageNum)
	if err != nil {
		return err
	}

	if cursor.cellIdx < leaf.numCells() && leaf.leafKey(cursor.cellIdx) == r.ID {
		return errors.Wrapf(customerrors.ErrDuplicateKey, "key %d", r.ID)
	}

	rowBytes, err := r.MarshalBinary()
	if err != nil {
		return err
	}

	if leaf.numCells() < LeafNodeCellMaxNum {
		leaf.insertLeafCell(cursor.cellIdx, r.ID, rowBytes)
		return nil
	}

	return t.splitLeafAndInsert(cursor, leaf, r.ID, rowBytes)
}

// splitLeafAndInsert distributes the full leaf's cells plus the incoming
// one across the old leaf and a new right sibling: the lower splitLeftNum
// cells stay, the upper splitRightNum move. Nothing is mutated until all
// page allocations have succeeded.
func (t *BPlusTree) splitLeafAndInsert(c *Cursor, old node, key uint64, rowBytes []byte) error {
	if !old.isRoot() {
		// Splitting a non-root leaf would require updating the parent's
		// separator and possibly splitting the internal node itself.
		return errors.Wrap(customerrors.ErrTableFull, "internal-node split not yet supported")
	}

	rightPage, err := t.pager.Alloc()
	if err != nil {
		return err
	}
	leftPage, err := t.pager.Alloc()
	if err != nil {
		return err
	}

	// Lay out the conceptual sequence of LeafNodeCellMaxNum+1 cells with
	// the incoming cell spliced in at the cursor position.
	scratch := make([]byte, 0, (LeafNodeCellMaxNum+1)*LeafNodeCellSize)
	for i := uint32(0); i < LeafNodeCellMaxNum; i++ {
		if i == c.cellIdx {
			scratch = appendCell(scratch, key, rowBytes)
		}
		scratch = append(scratch, old.leafCell(i)...)
	}
	if c.cellIdx == LeafNodeCellMaxNum {
		scratch = appendCell(scratch, key, rowBytes)
	}

	right := initLeaf(rightPage)
	boundary := splitLeftNum * LeafNodeCellSize
	copy(old.page.Data[LeafNodeHeaderSize:], scratch[:boundary])
	old.setNumCells(splitLeftNum)
	copy(right.page.Data[LeafNodeHeaderSize:], scratch[boundary:])
	right.setNumCells(splitRightNum)

	right.setNextLeaf(old.nextLeaf())
	old.setNextLeaf(rightPage.Num)

	return t.createNewRoot(old, right, leftPage)
}

// createNewRoot turns the old root leaf into an internal root in place:
// its current page image moves to leftPage, which becomes the left
// child, and the root page is reinitialized with a single separator
// entry and the new right child.
func (t *BPlusTree) createNewRoot(root, right node, leftPage *pager.Page) error {
	copy(leftPage.Data, root.page.Data)
	left := node{page: leftPage}
	left.setIsRoot(false)
	left.setParent(root.page.Num)

	right.setParent(root.page.Num)

	newRoot := initInternal(root.page)
	newRoot.setIsRoot(true)
	newRoot.setNumCells(1)
	newRoot.writeInternalCell(0, leftPage.Num, left.maxKey())
	newRoot.setRightChild(right.page.Num)
	return nil
}

// Scan visits every row in ascending key order until fn asks to stop.
func (t *BPlusTree) Scan(fn func(r *data.Row) (bool, error)) error {
	cursor, err := t.Start()
	if err != nil {
		return err
	}

	for !cursor.endOfTable {
		row, err := cursor.Value()
		if err != nil {
			return err
		}

		stop, err := fn(row)
		if err != nil || stop {
			return err
		}

		if err := cursor.Advance(); err != nil {
			return err
		}
	}

	return nil
}

// Dump writes the tree shape in pre-order, two spaces of indentation per
// depth: node headlines, leaf keys and internal separators.
func (t *BPlusTree) Dump(w io.Writer) error {
	return t.dumpPage(w, t.root, 0)
}

func (t *BPlusTree) dumpPage(w io.Writer, pageNum uint32, depth int) error {
	n, err := t.node(pageNum)
	if err != nil {
		return err
	}

	indent := strings.Repeat("  ", depth)
	if n.kind() == kindLeaf {
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, n.numCells())
		for i := uint32(0); i < n.numCells(); i++ {
			fmt.Fprintf(w, "%s  - %d\n", indent, n.leafKey(i))
		}
		return nil
	}

	fmt.Fprintf(w, "%s- internal (size %d)\n", indent, n.numCells())
	for i := uint32(0); i < n.numCells(); i++ {
		if err := t.dumpPage(w, n.internalChild(i), depth+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  - key %d\n", indent, n.internalKey(i))
	}
	return t.dumpPage(w, n.rightChild(), depth+1)
}

func appendCell(scratch []byte, key uint64, rowBytes []byte) []byte {
	var keyBuf [LeafNodeKeySize]byte
	bin.PutUint64(keyBuf[:], key)
	scratch = append(scratch, keyBuf[:]...)
	return append(scratch, rowBytes...)
}
