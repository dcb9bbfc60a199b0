package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jinjac/jinjac"
	"github.com/spf13/cobra"
)

var (
	compileJSON  bool
	compileDebug bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a template to its Target AST",
	Long: `Compile reads a template (from a file argument, or stdin if none is
given), runs it through the Lexer, Parser and Lowerer, and prints the
resulting Target AST.

Use --json to print the full ESTree-shaped tree as JSON for a downstream
printer. Use --dump-ast to also print a human-readable Template AST dump
before lowering.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().BoolVar(&compileJSON, "json", false, "print the Target AST as JSON")
	compileCmd.Flags().BoolVar(&compileDebug, "dump-ast", false, "print a pretty Template AST dump before lowering")
}

func readSource(args []string) (string, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		return string(data), "<stdin>", err
	}
	data, err := os.ReadFile(args[0])
	return string(data), args[0], err
}

func runCompile(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	src, name, err := readSource(args)
	if err != nil {
		return err
	}
	if cfg.SourceName != "" {
		name = cfg.SourceName
	}

	if compileDebug {
		parser := jinjac.NewParser(name, src)
		tmpl, err := parser.Parse()
		if err != nil {
			return err
		}
		jinjac.DumpTemplate(os.Stdout, tmpl)
	}

	opts := jinjac.Options{Name: name}
	if len(cfg.Defines) > 0 {
		opts.Transforms = append(opts.Transforms, cfg.DefinesTransform())
	}
	program, err := jinjac.Compile(src, opts)
	if err != nil {
		return err
	}

	if compileJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(program)
	}

	jinjac.DumpProgram(os.Stdout, program)
	fmt.Fprintln(os.Stdout)
	return nil
}
