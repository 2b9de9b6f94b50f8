package errors

import "errors"

var (
	ErrInsertSyntax  = errors.New("insert <id> <name> <description>")
	ErrNotPositiveID = errors.New("id must be greater than 0")
)
