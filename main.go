package main

import (
	"fmt"
	"os"

	"rqlite/config"
	"rqlite/repl"
	"rqlite/services/executor"
	"rqlite/services/parser"
)

func main() {
	if len(os.Args) != 2 {
		fatal("USAGE: rqlite <database>")
	}

	ps := parser.New()
	es, err := executor.New(os.Args[1])
	if err != nil {
		fatalf("ERROR: init pager: %v.\n", err)
	}

	configs := config.New()
	r := repl.New(configs.ReplConfig, ps, es, os.Stdin, os.Stdout)
	runErr := r.Start()

	if err := es.Close(); err != nil {
		fmt.Println("error on gracefully stopping:", err)
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func fatal(val interface{}) {
	fmt.Println(val)
	os.Exit(1)
}

func fatalf(format string, values ...interface{}) {
	fmt.Printf(format, values...)
	os.Exit(1)
}
