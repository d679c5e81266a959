package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ruleslang/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ruleslang",
	Short: "RulesLang rule compiler and evaluator",
	Long:  `RulesLang compiles rule programs and evaluates them against JSON input; without --file it drops into an interactive shell`,
	RunE:  rootRun,
}

// main wires the root command's flags, registers subcommands, and
// executes. Any unhandled failure exits non-zero.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tokenizeCmd)

	rootCmd.Flags().StringP("file", "f", "", "compile the rule at <path> (requires --input or --describe)")
	rootCmd.Flags().StringP("input", "i", "", "a JSON value for the rule input; '-' reads newline-delimited JSON records from stdin")
	rootCmd.Flags().Bool("describe", false, "print the rule's input descriptor instead of evaluating")
	rootCmd.PersistentFlags().String("color", "", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
