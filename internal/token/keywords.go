package token

var keywords = map[string]Kind{
	"def":      KwDef,
	"let":      KwLet,
	"var":      KwVar,
	"if":       KwIf,
	"elif":     KwElif,
	"else":     KwElse,
	"while":    KwWhile,
	"func":     KwFunc,
	"return":   KwReturn,
	"break":    KwBreak,
	"continue": KwContinue,
	"true":     BooleanLiteral,
	"false":    BooleanLiteral,
}

// LookupKeyword returns the Kind for a reserved word and true, or (Invalid,
// false) if ident is not reserved. Built-in atomic type names (sint32,
// fp64, bool, string, ...) are deliberately absent: they resolve as
// ordinary identifiers in the semantic analyzer, not as lexer keywords.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
