// Package statement defines the prepared statements produced by the
// parser and consumed by the executor.
package statement

import "rqlite/pkg/data"

type Kind int

const (
	Insert Kind = iota
	Select
	Exit
	Constants
	Tree
)

// Statement is one prepared command. Row carries the payload of an
// Insert and is nil otherwise.
type Statement struct {
	Kind Kind
	Row  *data.Row
}
