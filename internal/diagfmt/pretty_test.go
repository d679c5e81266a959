package diagfmt_test

import (
	"bytes"
	"strings"
	"testing"

	"ruleslang/internal/diag"
	"ruleslang/internal/diagfmt"
	"ruleslang/internal/source"
)

func TestPrettyFormatsSpanWithOffender(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("err.rl", []byte("let x = missing\n"))
	bag := diag.NewBag(4)
	// "missing" occupies bytes 8..15 on line 1.
	bag.Add(diag.NewError(diag.SemaUnknownName, source.Span{File: id, Start: 8, End: 15}, "unknown name"))

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	out := buf.String()

	wantHead := `Error: "unknown name" caused by 'missing' at line: 1, index: 8 to 15 in`
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected head, source, and caret lines, got %q", out)
	}
	if lines[0] != wantHead {
		t.Fatalf("head line mismatch:\ngot  %s\nwant %s", lines[0], wantHead)
	}
	if lines[1] != "let x = missing" {
		t.Fatalf("source line mismatch: %q", lines[1])
	}
	if lines[2] != "        ^~~~~~~" {
		t.Fatalf("caret line mismatch: %q", lines[2])
	}
}

func TestPrettyMirrorsLeadingTabsInPadding(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("tab.rl", []byte("\t\tbad\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SynUnexpectedToken, source.Span{File: id, Start: 2, End: 5}, "unexpected token"))

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[2] != "\t\t^~~" {
		t.Fatalf("the padding must mirror leading tabs with tabs, got %q", lines[2])
	}
}

func TestPrettySingleColumnSpanHasNoRange(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("one.rl", []byte("x\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SynUnexpectedToken, source.Span{File: id, Start: 0, End: 1}, "unexpected"))

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	head := strings.SplitN(buf.String(), "\n", 2)[0]
	if strings.Contains(head, " to ") {
		t.Fatalf("a one-column span should not print a range: %q", head)
	}
}
