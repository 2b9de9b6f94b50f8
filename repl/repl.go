// Package repl drives the interactive prompt: it reads input line by
// line, hands each command to the parser and the executor, and renders
// their diagnostics.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"rqlite/config"
	"rqlite/pkg/customerrors"
	"rqlite/pkg/statement"
	"rqlite/services/executor"
	"rqlite/services/parser"
	"rqlite/util/logger"
)

type Repl struct {
	config   *config.ReplConfig
	parser   parser.ParserService
	executor *executor.ExecutorService
	in       io.Reader
	out      io.Writer
}

func New(
	cfg *config.ReplConfig,
	ps parser.ParserService,
	es *executor.ExecutorService,
	in io.Reader,
	out io.Writer,
) *Repl {
	return &Repl{
		config:   cfg,
		parser:   ps,
		executor: es,
		in:       in,
		out:      out,
	}
}

// Start runs the session until `.exit`, end of input, or a fault the
// session cannot recover from.
func (r *Repl) Start() error {
	scanner := bufio.NewScanner(r.in)

	for {
		fmt.Fprint(r.out, r.config.Prompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		stmt, err := r.parser.Parse(input)
		if err != nil {
			fmt.Fprintf(r.out, "ERROR: %s.\n", err)
			continue
		}

		if stmt.Kind == statement.Exit {
			break
		}

		if err := r.executor.Exec(stmt, r.out); err != nil {
			fmt.Fprintf(r.out, "ERROR: %s.\n", err)
			if !customerrors.IsRecoverable(err) {
				logger.C("repl").WithError(err).Error("session aborted")
				return err
			}
		}
	}

	logger.C("repl").Debug("session finished")
	return scanner.Err()
}
