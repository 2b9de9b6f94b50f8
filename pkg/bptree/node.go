package bptree

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rqlite/pkg/customerrors"
	"rqlite/pkg/data"
	"rqlite/pkg/pager"
)

// bin is the byte order used for all on-page integers.
var bin = binary.LittleEndian

// On-page layout. Every node starts with the common header; leaves add
// the next-leaf pointer, internal nodes the rightmost child pointer.
const (
	kindOffset     = 0
	isRootOffset   = 1
	parentOffset   = 2
	numCellsOffset = 6

	NodeHeaderSize = 10

	nextLeafOffset     = NodeHeaderSize
	LeafNodeHeaderSize = NodeHeaderSize + 4

	rightChildOffset       = NodeHeaderSize
	InternalNodeHeaderSize = NodeHeaderSize + 4

	LeafNodeKeySize       = 8
	LeafNodeCellSize      = LeafNodeKeySize + data.RowSize
	LeafNodeSpaceForCells = pager.PageSize - LeafNodeHeaderSize
	LeafNodeCellMaxNum    = LeafNodeSpaceForCells / LeafNodeCellSize

	InternalNodeChildSize  = 4
	InternalNodeKeySize    = 8
	InternalNodeCellSize   = InternalNodeChildSize + InternalNodeKeySize
	InternalNodeCellMaxNum = (pager.PageSize - InternalNodeHeaderSize) / InternalNodeCellSize

	splitRightNum = (LeafNodeCellMaxNum + 1) / 2
	splitLeftNum  = (LeafNodeCellMaxNum + 1) - splitRightNum
)

type nodeKind uint8

const (
	kindInternal nodeKind = 1
	kindLeaf     nodeKind = 2
)

// noParent marks a node that is not attached under an internal node.
// The parent field is only meaningful on non-root nodes.
const noParent = ^uint32(0)

// node is a typed view over a page image. All node state lives in the
// page bytes, so flushing the page persists the node as-is.
type node struct {
	page *pager.Page
}

// view wraps a page and validates that it holds a well-formed node.
func view(p *pager.Page) (node, error) {
	n := node{page: p}
	switch n.kind() {
	case kindLeaf:
		if n.numCells() > LeafNodeCellMaxNum {
			return node{}, errors.Wrapf(customerrors.ErrCorrupted, "leaf page %d holds %d cells", p.Num, n.numCells())
		}
	case kindInternal:
		if n.numCells() > InternalNodeCellMaxNum {
			return node{}, errors.Wrapf(customerrors.ErrCorrupted, "internal page %d holds %d cells", p.Num, n.numCells())
		}
	default:
		return node{}, errors.Wrapf(customerrors.ErrCorrupted, "page %d has unknown node kind %d", p.Num, p.Data[kindOffset])
	}
	return n, nil
}

// initLeaf formats p as an empty non-root leaf.
func initLeaf(p *pager.Page) node {
	n := node{page: p}
	p.Data[kindOffset] = byte(kindLeaf)
	n.setIsRoot(false)
	n.setParent(noParent)
	n.setNumCells(0)
	n.setNextLeaf(0)
	return n
}

// initInternal formats p as an empty non-root internal node.
func initInternal(p *pager.Page) node {
	n := node{page: p}
	p.Data[kindOffset] = byte(kindInternal)
	n.setIsRoot(false)
	n.setParent(noParent)
	n.setNumCells(0)
	n.setRightChild(0)
	return n
}

func (n node) kind() nodeKind {
	return nodeKind(n.page.Data[kindOffset])
}

func (n node) isRoot() bool {
	return n.page.Data[isRootOffset] != 0
}

func (n node) setIsRoot(isRoot bool) {
	n.page.Data[isRootOffset] = 0
	if isRoot {
		n.page.Data[isRootOffset] = 1
	}
}

func (n node) parent() uint32 {
	return bin.Uint32(n.page.Data[parentOffset : parentOffset+4])
}

func (n node) setParent(parent uint32) {
	bin.PutUint32(n.page.Data[parentOffset:parentOffset+4], parent)
}

func (n node) numCells() uint32 {
	return bin.Uint32(n.page.Data[numCellsOffset : numCellsOffset+4])
}

func (n node) setNumCells(count uint32) {
	bin.PutUint32(n.page.Data[numCellsOffset:numCellsOffset+4], count)
}

func (n node) nextLeaf() uint32 {
	return bin.Uint32(n.page.Data[nextLeafOffset : nextLeafOffset+4])
}

func (n node) setNextLeaf(next uint32) {
	bin.PutUint32(n.page.Data[nextLeafOffset:nextLeafOffset+4], next)
}

func (n node) rightChild() uint32 {
	return bin.Uint32(n.page.Data[rightChildOffset : rightChildOffset+4])
}

func (n node) setRightChild(child uint32) {
	bin.PutUint32(n.page.Data[rightChildOffset:rightChildOffset+4], child)
}

func leafCellOffset(idx uint32) int {
	return LeafNodeHeaderSize + int(idx)*LeafNodeCellSize
}

// leafCell returns the raw cell bytes: 8-byte key followed by the
// serialized row.
func (n node) leafCell(idx uint32) []byte {
	off := leafCellOffset(idx)
	return n.page.Data[off : off+LeafNodeCellSize]
}

func (n node) leafKey(idx uint32) uint64 {
	off := leafCellOffset(idx)
	return bin.Uint64(n.page.Data[off : off+LeafNodeKeySize])
}

// leafRow returns the serialized row portion of a cell.
func (n node) leafRow(idx uint32) []byte {
	return n.leafCell(idx)[LeafNodeKeySize:]
}

func (n node) writeLeafCell(idx uint32, key uint64, rowBytes []byte) {
	off := leafCellOffset(idx)
	bin.PutUint64(n.page.Data[off:off+LeafNodeKeySize], key)
	copy(n.page.Data[off+LeafNodeKeySize:off+LeafNodeCellSize], rowBytes)
}

// insertLeafCell shifts cells [idx, numCells) one slot right and writes
// the new cell at idx. The caller guarantees the leaf has room.
func (n node) insertLeafCell(idx uint32, key uint64, rowBytes []byte) {
	count := n.numCells()
	start := leafCellOffset(idx)
	end := leafCellOffset(count)
	copy(n.page.Data[start+LeafNodeCellSize:end+LeafNodeCellSize], n.page.Data[start:end])
	n.writeLeafCell(idx, key, rowBytes)
	n.setNumCells(count + 1)
}

func internalCellOffset(idx uint32) int {
	return InternalNodeHeaderSize + int(idx)*InternalNodeCellSize
}

func (n node) internalChild(idx uint32) uint32 {
	off := internalCellOffset(idx)
	return bin.Uint32(n.page.Data[off : off+InternalNodeChildSize])
}

func (n node) internalKey(idx uint32) uint64 {
	off := internalCellOffset(idx) + InternalNodeChildSize
	return bin.Uint64(n.page.Data[off : off+InternalNodeKeySize])
}

func (n node) writeInternalCell(idx uint32, child uint32, key uint64) {
	off := internalCellOffset(idx)
	bin.PutUint32(n.page.Data[off:off+InternalNodeChildSize], child)
	bin.PutUint64(n.page.Data[off+InternalNodeChildSize:off+InternalNodeCellSize], key)
}

// child returns the idx-th child of an internal node. An internal node
// with c cells has c+1 children; slot c is the rightmost child.
func (n node) child(idx uint32) uint32 {
	if idx == n.numCells() {
		return n.rightChild()
	}
	return n.internalChild(idx)
}

// maxKey is the separator a parent would use for this node: the key of
// its last cell or entry.
func (n node) maxKey() uint64 {
	last := n.numCells() - 1
	if n.kind() == kindLeaf {
		return n.leafKey(last)
	}
	return n.internalKey(last)
}

// leafSearch returns the index of the first cell whose key is >= key,
// which is also the insertion point for key.
func (n node) leafSearch(key uint64) uint32 {
	left, right := uint32(0), n.numCells()
	for left != right {
		mid := (left + right) / 2
		cellKey := n.leafKey(mid)
		if key == cellKey {
			return mid
		} else if key < cellKey {
			right = mid
		} else {
			left = mid + 1
		}
	}
	return left
}

// internalSearch returns the child slot to descend into for key: the
// first entry whose key is >= key, or the rightmost slot.
func (n node) internalSearch(key uint64) uint32 {
	left, right := uint32(0), n.numCells()
	for left != right {
		mid := (left + right) / 2
		if key <= n.internalKey(mid) {
			right = mid
		} else {
			left = mid + 1
		}
	}
	return left
}
