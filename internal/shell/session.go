// Package shell implements the interactive loop: a line-oriented session
// engine (parse, operator-expand, interpret, evaluate per submission)
// wrapped in a bubbletea UI. The engine is separate from the UI so tests
// can drive submissions directly.
package shell

import (
	"bytes"
	"fmt"
	"strings"

	"ruleslang/internal/diag"
	"ruleslang/internal/diagfmt"
	"ruleslang/internal/lexer"
	"ruleslang/internal/opexpand"
	"ruleslang/internal/parser"
	"ruleslang/internal/rule"
	"ruleslang/internal/sema"
	"ruleslang/internal/source"
	"ruleslang/internal/vm"
)

// modeToggle is the control character that switches between statement and
// expression mode: a line beginning with U+0001 flips the prompt between
// `> ` and `>>> `.
const modeToggle = "\x01"

const maxDiagnosticsPerSubmission = 32

// Session holds the state that persists across submissions: the scope
// context (inside the analyzer), the machine's root frame and heap, and
// the current input mode.
type Session struct {
	fs       *source.FileSet
	strings  *source.Interner
	analyzer *sema.Analyzer
	machine  *vm.Machine

	exprMode bool
	pending  []string
	submits  int
	color    bool
}

func NewSession() *Session {
	strs := source.NewInterner()
	analyzer := sema.NewAnalyzer(sema.Options{Mode: sema.ModeShell})
	return &Session{
		fs:       source.NewFileSet(),
		strings:  strs,
		analyzer: analyzer,
		machine:  vm.NewMachine(analyzer.Types(), strs),
	}
}

// SetColor enables ANSI color in rendered diagnostics.
func (s *Session) SetColor(on bool) { s.color = on }

// Prompt returns `> ` in statement mode, `>>> ` in expression mode, and
// the continuation prompt while a block is being collected.
func (s *Session) Prompt() string {
	if len(s.pending) > 0 {
		return "... "
	}
	if s.exprMode {
		return ">>> "
	}
	return "> "
}

// ExpressionMode reports the current input mode.
func (s *Session) ExpressionMode() bool { return s.exprMode }

// Submit processes one input line and returns the lines to print.
func (s *Session) Submit(line string) []string {
	if len(s.pending) > 0 {
		if strings.TrimSpace(line) == "" {
			text := strings.Join(s.pending, "\n")
			s.pending = nil
			return s.run(text)
		}
		s.pending = append(s.pending, line)
		return nil
	}

	if strings.HasPrefix(line, modeToggle) {
		s.exprMode = !s.exprMode
		if s.exprMode {
			return []string{"expression mode"}
		}
		return []string{"statement mode"}
	}

	switch strings.TrimSpace(line) {
	case "":
		return nil
	case ":stack":
		return []string{
			fmt.Sprintf("stack used: %d", s.machine.Stack.UsedSize()),
			fmt.Sprintf("heap size: %d", s.machine.Heap.Size()),
		}
	case ":reset":
		s.machine.Reset()
		s.machine.EnsureRootFrame(s.analyzer.RootFrameSize())
		return []string{"runtime state reset"}
	case ":type":
		if t := s.inputType(); t != "" {
			return []string{"input: " + t}
		}
		return []string{"no Input type defined"}
	}

	// A statement-mode line ending with ':' (ignoring trailing blanks)
	// starts a block; input continues until a blank continuation line.
	if !s.exprMode && strings.HasSuffix(strings.TrimRight(line, " \t"), ":") {
		s.pending = []string{line}
		return nil
	}

	return s.run(line)
}

func (s *Session) inputType() string {
	if t, ok := s.analyzer.InputType(); ok {
		return rule.DescribeType(s.analyzer.Types(), s.strings, t)
	}
	return ""
}

func (s *Session) run(text string) []string {
	s.submits++
	fileID := s.fs.AddVirtual(fmt.Sprintf("shell:%d", s.submits), []byte(text))
	file := s.fs.Get(fileID)

	bag := diag.NewBag(maxDiagnosticsPerSubmission)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	lx := lexer.New(file, lexer.Options{Reporter: reporter})

	if s.exprMode {
		tree, exprID := parser.ParseExpression(lx, s.strings, parser.Options{Reporter: reporter, MaxErrors: maxDiagnosticsPerSubmission})
		if bag.HasErrors() || !exprID.IsValid() {
			return s.renderBag(bag)
		}
		prog, valType, ok := s.analyzer.AnalyzeExpression(tree, exprID)
		if !ok || bag.HasErrors() {
			return s.renderBag(bag)
		}
		if flowErr := s.exec(prog); flowErr != nil {
			return flowErr
		}
		value := s.formatTop(valType)
		return []string{
			"type: " + rule.DescribeType(s.analyzer.Types(), s.strings, valType),
			"value: " + value,
		}
	}

	tree := parser.Parse(lx, s.strings, parser.Options{Reporter: reporter, MaxErrors: maxDiagnosticsPerSubmission})
	if bag.HasErrors() {
		return s.renderBag(bag)
	}
	opexpand.Expand(tree)
	prog, ok := s.analyzer.Analyze(tree)
	if !ok || bag.HasErrors() {
		return s.renderBag(bag)
	}
	if flowErr := s.exec(prog); flowErr != nil {
		return flowErr
	}
	return []string{fmt.Sprintf("stack used: %d", s.machine.Stack.UsedSize())}
}

func (s *Session) exec(prog *sema.Program) []string {
	_, err := s.machine.Exec(prog)
	if err == nil {
		return nil
	}
	if vm.IsNotImplemented(err) {
		return []string{"value not implemented"}
	}
	var buf bytes.Buffer
	diagfmt.PrettyOne(&buf, err.Diagnostic(), s.fs, diagfmt.PrettyOpts{Color: s.color})
	return splitLines(buf.String())
}

func (s *Session) renderBag(bag *diag.Bag) []string {
	bag.Sort()
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, s.fs, diagfmt.PrettyOpts{Color: s.color})
	return splitLines(buf.String())
}

func splitLines(text string) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}
