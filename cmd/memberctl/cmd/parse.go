package cmd

import (
	"strings"

	"github.com/memberdesk/backend/internal/parser"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <text>...",
	Short: "Guess the intent of a sentence",
	Long: `Runs the intent guesser over the sentence and prints the rule that
matched, the resolved commands and the failure of every rule tried before.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	guess, err := parser.NewGuesser(newParser()).Guess(text)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), guess)
}
