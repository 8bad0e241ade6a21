package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tremor-rs/tremor"
	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/lexer"
)

var dbgCmd = &cobra.Command{Use: "dbg", Short: "debug inspection commands"}

func init() {
	rootCmd.AddCommand(dbgCmd)
	dbgCmd.AddCommand(
		&cobra.Command{Use: "src SCRIPT", Args: cobra.ExactArgs(1), Short: "print the source as read", RunE: dbgSrc},
		&cobra.Command{Use: "lex SCRIPT", Args: cobra.ExactArgs(1), Short: "print the token stream", RunE: dbgLex},
		&cobra.Command{Use: "ast SCRIPT", Args: cobra.ExactArgs(1), Short: "print the parsed AST", RunE: dbgAst},
		&cobra.Command{Use: "dot SCRIPT", Args: cobra.ExactArgs(1), Short: "print a trickle query's DAG as Graphviz dot", RunE: dbgDot},
	)
}

func readSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func dbgSrc(cmd *cobra.Command, args []string) error {
	src, err := readSource(args[0])
	if err != nil {
		return err
	}
	fmt.Print(src)
	return nil
}

// dbgLex prints every token the lexer produces, one per line, the
// simplest possible `dbg lex` (spec §6) since tokens carry no further
// structure worth formatting beyond type/value/position.
func dbgLex(cmd *cobra.Command, args []string) error {
	src, err := readSource(args[0])
	if err != nil {
		return err
	}
	l := lexer.New(src)
	for {
		tok := l.Next()
		fmt.Printf("%-12s %-20q %d:%d\n", tok.Type, tok.Value, tok.Line, tok.Column)
		if tok.Type == lexer.TokenEOF || tok.Type == lexer.TokenError {
			break
		}
	}
	if err := l.Err(); err != nil {
		return err
	}
	return nil
}

// dbgAst parses path as a query when it has a `.trickle` suffix and as a
// script otherwise, then prints an indented tree. A failed parse is
// reported as is; the other grammar is not tried.
func dbgAst(cmd *cobra.Command, args []string) error {
	path := args[0]
	src, err := readSource(path)
	if err != nil {
		return err
	}

	var prog *ast.Node
	if strings.HasSuffix(path, ".trickle") {
		prog, err = tremor.ParseQuery(path, src)
	} else {
		prog, err = tremor.ParseScript(path, src)
	}
	if err != nil {
		return reportParseError(path, src, err)
	}

	dumpNode(os.Stdout, prog, 0)
	return nil
}

func reportParseError(path, src string, err error) error {
	if de, ok := err.(*diag.Error); ok {
		r := diag.NewReporter()
		r.AddSource(path, src)
		fmt.Fprintln(os.Stderr, r.Format(de))
		return err
	}
	return err
}

// dumpNode writes a simple s-expression-ish tree: the node's type and
// scalar payload fields, recursing into every structural slot the Node
// may populate (see pkg/ast/ast.go's doc comments for which fields a
// given Type uses — unset ones are just the zero value and skipped here
// by virtue of being nil/empty).
func dumpNode(w *os.File, n *ast.Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s", indent, n.Type)
	if n.StrVal != "" {
		fmt.Fprintf(w, " %q", n.StrVal)
	}
	if n.ModuleName != "" {
		fmt.Fprintf(w, " module=%s", n.ModuleName)
	}
	fmt.Fprintln(w)

	dumpNode(w, n.LHS, depth+1)
	dumpNode(w, n.RHS, depth+1)
	dumpNode(w, n.Guard, depth+1)
	dumpNode(w, n.Into, depth+1)
	dumpNode(w, n.GroupBy, depth+1)
	for _, c := range n.Children {
		dumpNode(w, c, depth+1)
	}
	for _, s := range n.Steps {
		dumpNode(w, s, depth+1)
	}
}

// dbgDot compiles a trickle query and renders its DAG as Graphviz dot,
// one edge per (node, port) -> (node, port) connection.
func dbgDot(cmd *cobra.Command, args []string) error {
	path := args[0]
	src, err := readSource(path)
	if err != nil {
		return err
	}

	ev := tremor.NewEvaluator()
	dag, err := tremor.CompileQuery(path, src, ev)
	if err != nil {
		return reportParseError(path, src, err)
	}

	fmt.Println("digraph tremor {")
	for _, e := range dag.Edges {
		fmt.Printf("  %q -> %q [label=%q];\n", e.From.Node, e.To.Node, e.From.Port+"->"+e.To.Port)
	}
	fmt.Println("}")
	return nil
}
