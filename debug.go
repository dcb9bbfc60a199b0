package jinjac

import (
	"io"

	"github.com/kr/pretty"
)

// DumpTemplate writes a pretty-printed Template AST to w, for the CLI's
// `compile --dump-ast` flag.
func DumpTemplate(w io.Writer, tmpl *Template) {
	pretty.Fprintf(w, "%# v\n", tmpl)
}

// DumpProgram writes a pretty-printed Target AST to w.
func DumpProgram(w io.Writer, prog *Program) {
	pretty.Fprintf(w, "%# v\n", prog)
}
