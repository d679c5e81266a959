package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ruleslang/internal/diag"
	"ruleslang/internal/diagfmt"
	"ruleslang/internal/lexer"
	"ruleslang/internal/source"
	"ruleslang/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] <file>",
	Short: "Dump the token stream of a rule file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().Bool("json", false, "emit tokens and diagnostics as JSON")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	fs := source.NewFileSet()
	fileID, err := fs.Load(args[0])
	if err != nil {
		return err
	}

	bag := diag.NewBag(100)
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})

	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF || tok.Kind == token.Invalid {
			break
		}
	}

	if asJSON {
		if err := diagfmt.FormatTokensJSON(os.Stdout, tokens); err != nil {
			return err
		}
		if bag.Len() > 0 {
			bag.Sort()
			return diagfmt.JSON(os.Stderr, bag, fs, diagfmt.JSONOpts{IncludePositions: true})
		}
		return nil
	}

	if err := diagfmt.FormatTokensPretty(os.Stdout, tokens, fs); err != nil {
		return err
	}
	if bag.HasErrors() {
		bag.Sort()
		colorFlag, _ := cmd.Flags().GetString("color")
		diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{Color: resolveColor(colorFlag, "auto")})
		return fmt.Errorf("tokenization reported errors")
	}
	return nil
}
