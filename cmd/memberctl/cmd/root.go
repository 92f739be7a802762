// Package cmd implements memberctl, an offline tool for trying the text
// parsers and the dispatcher without the HTTP server.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/memberdesk/backend/internal/lexicon"
	"github.com/memberdesk/backend/internal/parser"
	"github.com/spf13/cobra"
)

var (
	particleMinLength int
	seedFile          string
)

var rootCmd = &cobra.Command{
	Use:   "memberctl",
	Short: "Member desk command line tools",
	Long: `memberctl runs the member desk text parsers and dispatcher locally.

Commands:
  parse     - guess the intent of a Korean sentence
  fields    - list field synonyms and trigger words
  dispatch  - run one operation against an in-memory store`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().IntVar(&particleMinLength, "particle-min", 3, "minimum token length before a trailing particle is stripped")
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed", "", "JSON seed file for the in-memory store")
}

func newParser() *parser.Parser {
	return parser.New(lexicon.Default(particleMinLength))
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
