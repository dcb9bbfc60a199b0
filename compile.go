package jinjac

import "github.com/juju/errors"

// Transform hooks into the pipeline between parsing and lowering: a build
// tool can inspect or rewrite the Template AST before it becomes a Target
// AST, e.g. to inject an extra macro or strip debug-only blocks.
type Transform func(*Template) (*Template, error)

// Options configures a single Compile call.
type Options struct {
	// Name is attached to every SourceLoc of the resulting Target AST and
	// used in log messages. Empty means "<template>".
	Name string

	// Transforms run in order against the parsed Template AST, before
	// lowering.
	Transforms []Transform
}

// Compile runs the full Lexer → Parser → Transform → Lowerer pipeline over
// source and returns the resulting Target AST Program.
//
// A malformed template surfaces as a *SyntaxError carrying the offending
// span; any other error is a bug in a supplied Transform, not in the
// template itself.
func Compile(source string, opts Options) (*Program, error) {
	name := opts.Name
	if name == "" {
		name = "<template>"
	}

	logger.Debugf("compiling %s (%d bytes)", name, len(source))

	parser := NewParser(name, source)
	tmpl, err := parser.Parse()
	if err != nil {
		if _, ok := err.(*SyntaxError); ok {
			logger.Warningf("%s: %s", name, err)
			return nil, err
		}
		return nil, errors.Annotatef(err, "parsing %s", name)
	}
	logger.Debugf("%s: parsed %d block(s), %d macro(s)", name, len(tmpl.Blocks), len(tmpl.Macros))

	for _, t := range opts.Transforms {
		tmpl, err = t(tmpl)
		if err != nil {
			return nil, errors.Annotatef(err, "transforming %s", name)
		}
	}

	program := Lower(tmpl, name)
	logger.Debugf("%s: lowered to %d top-level statement(s)", name, len(program.Body))
	return program, nil
}
