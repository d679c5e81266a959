// Package rule is the top-level interface of the language pipeline: it
// compiles source text into a Rule and evaluates the rule against JSON
// input, producing JSON output or null for "not applicable".
package rule

import (
	"ruleslang/internal/diag"
	"ruleslang/internal/lexer"
	"ruleslang/internal/opexpand"
	"ruleslang/internal/parser"
	"ruleslang/internal/sema"
	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

// Rule is a compiled program: a function from input JSON to output JSON.
type Rule struct {
	Prog    *sema.Program
	Types   *types.Interner
	Strings *source.Interner
	FileID  source.FileID
	fs      *source.FileSet
}

// Compile runs the full pipeline (tokenize, parse, operator-expand,
// analyze, reduce) over the file's content. Diagnostics land in bag; the
// returned error wraps the first error-severity diagnostic.
func Compile(fs *source.FileSet, fileID source.FileID, bag *diag.Bag) (*Rule, error) {
	// Speculative re-analysis (composite-literal inference) can surface
	// the same diagnostic twice; dedup keeps one per span and message.
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	file := fs.Get(fileID)
	strings := source.NewInterner()

	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	tree := parser.Parse(lx, strings, parser.Options{Reporter: reporter, MaxErrors: uint(bag.Cap())})
	if bag.HasErrors() {
		return nil, firstError(bag)
	}

	opexpand.Expand(tree)

	analyzer := sema.NewAnalyzer(sema.Options{Reporter: reporter, Mode: sema.ModeRule})
	prog, ok := analyzer.Analyze(tree)
	if !ok || bag.HasErrors() {
		return nil, firstError(bag)
	}

	return &Rule{
		Prog:    prog,
		Types:   analyzer.Types(),
		Strings: strings,
		FileID:  fileID,
		fs:      fs,
	}, nil
}

// CompileSource compiles source text under a virtual file name.
func CompileSource(fs *source.FileSet, name string, src []byte, bag *diag.Bag) (*Rule, error) {
	return Compile(fs, fs.AddVirtual(name, src), bag)
}

func firstError(bag *diag.Bag) error {
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevError {
			return diag.AsSourceException(d)
		}
	}
	return diag.AsSourceException(diag.NewError(diag.UnknownCode, source.Span{}, "compilation failed"))
}

// InputDescriptor serializes the rule's input type to its descriptor
// string (the "rule input JSON format").
func (r *Rule) InputDescriptor() string {
	if r.Prog.InputType == types.NoTypeID {
		return "{}"
	}
	return DescribeType(r.Types, r.Strings, r.Prog.InputType)
}
