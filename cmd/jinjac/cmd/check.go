package cmd

import (
	"fmt"
	"os"

	"github.com/jinjac/jinjac"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Parse a template and report syntax errors without lowering",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(c *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	src, name, err := readSource(args)
	if err != nil {
		return err
	}
	parser := jinjac.NewParser(name, src)
	if _, err := parser.Parse(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s: OK\n", name)
	return nil
}
