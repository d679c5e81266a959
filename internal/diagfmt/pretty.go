package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ruleslang/internal/diag"
	"ruleslang/internal/source"
)

// maxOffenderLen bounds the `caused by '<offender>'` lexeme; spans longer
// than this are reported without the offender clause.
const maxOffenderLen = 40

var (
	errColor   = color.New(color.FgRed, color.Bold)
	caretColor = color.New(color.FgRed)
)

// Pretty renders every diagnostic in bag in the error format the shell and
// CLI print:
//
//	Error: "<msg>" [caused by '<offender>'] at line: <L>, index: <S> [to <E>] in
//	<line-source>
//	<padding>^~~~~
//
// The padding mirrors the offending line's leading tabs with tabs so the
// caret lines up under tab-indented source regardless of tab width.
// Callers are expected to bag.Sort() beforehand.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		PrettyOne(w, d, fs, opts)
	}
}

// PrettyOne renders a single diagnostic.
func PrettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	f := fs.Get(d.Primary.File)
	start, end := fs.Resolve(d.Primary)
	line := f.GetLine(start.Line)

	head := fmt.Sprintf("%s: %q", severityLabel(d.Severity), d.Message)
	if offender := offenderText(f, d.Primary); offender != "" {
		head += fmt.Sprintf(" caused by '%s'", offender)
	}
	head += fmt.Sprintf(" at line: %d, index: %d", start.Line, start.Col-1)
	if end.Line == start.Line && end.Col > start.Col+1 {
		head += fmt.Sprintf(" to %d", end.Col-1)
	}
	head += " in"

	if opts.Color {
		head = errColor.Sprint(head)
	}
	fmt.Fprintln(w, head)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, underline(line, start, end, opts.Color))

	if opts.ShowNotes {
		for _, n := range d.Notes {
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  note: %s at line: %d, index: %d\n", n.Msg, ns.Line, ns.Col-1)
		}
	}
}

func severityLabel(s diag.Severity) string {
	switch s {
	case diag.SevWarning:
		return "Warning"
	case diag.SevInfo:
		return "Info"
	default:
		return "Error"
	}
}

func offenderText(f *source.File, sp source.Span) string {
	if sp.Empty() || int(sp.End) > len(f.Content) {
		return ""
	}
	text := string(f.Content[sp.Start:sp.End])
	if len(text) > maxOffenderLen || strings.ContainsAny(text, "\n\r") {
		return ""
	}
	return text
}

// underline builds the `<padding>^~~~~` marker for the span's extent on its
// first line. Leading tabs in the source line are mirrored as tabs; every
// other rune before the span start is padded with spaces sized by its
// display width.
func underline(line string, start, end source.LineCol, useColor bool) string {
	var pad strings.Builder
	col := uint32(1)
	for _, r := range line {
		if col >= start.Col {
			break
		}
		if r == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
		}
		col++
	}

	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = int(end.Col - start.Col)
	}
	marker := "^" + strings.Repeat("~", width-1)
	if useColor {
		marker = caretColor.Sprint(marker)
	}
	return pad.String() + marker
}
