// Package repl implements the line-oriented interactive calculator/script
// prompt described in the interpreter's usage scenarios.
package repl

import (
	"bufio"
	"fmt"
	"io"

	"pitlang/internal/evaluator"
	"pitlang/internal/lexer"
	"pitlang/internal/object"
	"pitlang/internal/parser"
	"pitlang/internal/stdlib"
)

const prompt = ">> "

// Start runs the read-eval-print loop against in/out until in is
// exhausted. Each line is parsed and evaluated independently, but all
// lines share one Environment so `let` bindings persist across lines.
// The root environment is seeded with `std` bound against out/in, same
// as a script run through the `pitlang` command.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	env := object.NewEnvironment()
	env.Define("std", stdlib.New(stdlib.Options{
		Argv:   []string{"pitlang", "<repl>"},
		Stdout: out,
		Stdin:  in,
	}))
	eval := evaluator.New("<repl>")

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		p, err := parser.New(lexer.New(line), "<repl>")
		if err != nil {
			fmt.Fprintf(out, "parse error: %s\n", err)
			continue
		}

		program, err := p.ParseProgram()
		if err != nil {
			fmt.Fprintf(out, "parse error: %s\n", err)
			continue
		}

		result := eval.Eval(program, env)
		if result == nil {
			continue
		}
		io.WriteString(out, result.Inspect())
		io.WriteString(out, "\n")
	}
}
