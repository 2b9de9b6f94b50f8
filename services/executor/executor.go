// Package executor runs prepared statements against the table and writes
// the user-facing results.
package executor

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"rqlite/pkg/customerrors"
	"rqlite/pkg/data"
	"rqlite/pkg/statement"
	"rqlite/pkg/table"
)

type ExecutorService struct {
	table *table.Table
}

func New(path string) (*ExecutorService, error) {
	t, err := table.Open(path)
	if err != nil {
		return nil, err
	}
	return &ExecutorService{table: t}, nil
}

// Exec runs stmt and writes its output to out. A returned error is
// user-facing: the repl renders it as `ERROR: <message>.`.
func (es *ExecutorService) Exec(stmt *statement.Statement, out io.Writer) error {
	switch stmt.Kind {
	case statement.Insert:
		return es.execInsert(stmt.Row, out)
	case statement.Select:
		return es.execSelect(out)
	case statement.Constants:
		return es.execConstants(out)
	case statement.Tree:
		return es.execTree(out)
	case statement.Exit:
		return nil
	}
	return errors.Errorf("unsupported statement kind: %d", stmt.Kind)
}

func (es *ExecutorService) execInsert(r *data.Row, out io.Writer) error {
	if err := es.table.Insert(r); err != nil {
		switch {
		case errors.Is(err, customerrors.ErrDuplicateKey):
			return duplicateKeyError{id: r.ID}
		case errors.Is(err, customerrors.ErrTableFull):
			return customerrors.ErrTableFull
		}
		return err
	}

	fmt.Fprintln(out, "executed.")
	return nil
}

// duplicateKeyError renders the user-facing duplicate-key message while
// keeping the sentinel reachable through errors.Is, so the repl can tell
// the session may continue.
type duplicateKeyError struct {
	id uint64
}

func (e duplicateKeyError) Error() string {
	return fmt.Sprintf("key '%d' already exist", e.id)
}

func (e duplicateKeyError) Unwrap() error {
	return customerrors.ErrDuplicateKey
}

func (es *ExecutorService) execSelect(out io.Writer) error {
	err := es.table.SelectAll(func(r *data.Row) (bool, error) {
		fmt.Fprintln(out, r.String())
		return false, nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "executed.")
	return nil
}

func (es *ExecutorService) execConstants(out io.Writer) error {
	c := es.table.Constants()
	fmt.Fprintln(out, "CONSTANT:")
	fmt.Fprintf(out, "row size: %d\n", c.RowSize)
	fmt.Fprintf(out, "node header size: %d\n", c.NodeHeaderSize)
	fmt.Fprintf(out, "leaf node header size: %d\n", c.LeafNodeHeaderSize)
	fmt.Fprintf(out, "leaf node cell size: %d\n", c.LeafNodeCellSize)
	fmt.Fprintf(out, "leaf node space for cells: %d\n", c.LeafNodeSpaceForCells)
	fmt.Fprintf(out, "leaf node max cells: %d\n", c.LeafNodeCellMaxNum)
	return nil
}

func (es *ExecutorService) execTree(out io.Writer) error {
	fmt.Fprintln(out, "TREE:")
	return es.table.DumpTree(out)
}

// Table exposes the underlying façade for diagnostics and tests.
func (es *ExecutorService) Table() *table.Table {
	return es.table
}

// Close flushes every cached page and closes the database file.
func (es *ExecutorService) Close() error {
	return es.table.Close()
}
