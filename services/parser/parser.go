// Package parser turns input lines into prepared statements: the insert
// and select statements plus the dot-prefixed meta commands.
package parser

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"rqlite/pkg/customerrors"
	"rqlite/pkg/data"
	"rqlite/pkg/statement"
	perrors "rqlite/services/parser/errors"
)

type ParserService interface {
	Parse(input string) (*statement.Statement, error)
}

type ParserServiceT struct{}

func New() *ParserServiceT {
	return &ParserServiceT{}
}

// Parse prepares one trimmed, non-empty input line.
func (ps *ParserServiceT) Parse(input string) (*statement.Statement, error) {
	if strings.HasPrefix(input, ".") {
		return ps.parseMetaCommand(input)
	}

	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return nil, errors.Errorf("unknown statement keyword: '%s'", input)
	}

	switch tokens[0] {
	case "insert":
		return ps.parseInsert(tokens[1:])
	case "select":
		return &statement.Statement{Kind: statement.Select}, nil
	}

	return nil, errors.Errorf("unknown statement keyword: '%s'", input)
}

func (ps *ParserServiceT) parseMetaCommand(input string) (*statement.Statement, error) {
	switch input {
	case ".exit":
		return &statement.Statement{Kind: statement.Exit}, nil
	case ".constants":
		return &statement.Statement{Kind: statement.Constants}, nil
	case ".tree":
		return &statement.Statement{Kind: statement.Tree}, nil
	}
	return nil, errors.Errorf("unknown command: '%s'", input)
}

func (ps *ParserServiceT) parseInsert(args []string) (*statement.Statement, error) {
	if len(args) != 3 {
		return nil, perrors.ErrInsertSyntax
	}

	// Parsed signed so that a negative id reports the positivity error
	// instead of a syntax error.
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, perrors.ErrInsertSyntax
	}
	if id <= 0 {
		return nil, perrors.ErrNotPositiveID
	}

	if len(args[1]) > data.NameMaxSize {
		return nil, customerrors.ErrNameTooLong
	}
	if len(args[2]) > data.DescriptionMaxSize {
		return nil, customerrors.ErrDescriptionTooLong
	}

	return &statement.Statement{
		Kind: statement.Insert,
		Row: &data.Row{
			ID:          uint64(id),
			Name:        args[1],
			Description: args[2],
		},
	}, nil
}
