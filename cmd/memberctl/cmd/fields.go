package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var showTriggers bool

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List member fields and their synonyms",
	RunE:  runFields,
}

func init() {
	fieldsCmd.Flags().BoolVar(&showTriggers, "triggers", false, "also list trigger words")
	rootCmd.AddCommand(fieldsCmd)
}

func runFields(cmd *cobra.Command, args []string) error {
	lex := newParser().Lexicon()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "FIELD\tSYNONYMS")
	for _, def := range lex.Fields() {
		fmt.Fprintf(w, "%s\t%s\n", def.Field, strings.Join(def.Synonyms, ", "))
	}

	if showTriggers {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "TRIGGER\tWORDS")
		for _, t := range []struct {
			name  string
			words []string
		}{
			{"delete", lex.Delete.Words()},
			{"update", lex.Update.Words()},
			{"save", lex.Save.Words()},
			{"search", lex.Search.Words()},
			{"order", lex.Order.Words()},
			{"commission", lex.Commission.Words()},
			{"log type", lex.LogTypes.Words()},
		} {
			fmt.Fprintf(w, "%s\t%s\n", t.name, strings.Join(t.words, ", "))
		}
	}
	return w.Flush()
}
