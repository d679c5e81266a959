package shell

import (
	"strings"
	"testing"
)

func TestExpressionModePrintsTypeAndValue(t *testing.T) {
	s := NewSession()
	s.Submit("\x01")
	if !s.ExpressionMode() || s.Prompt() != ">>> " {
		t.Fatalf("the toggle line should enter expression mode")
	}
	out := s.Submit("1 + 2")
	if len(out) != 2 || out[0] != "type: sint64" || out[1] != "value: 3" {
		t.Fatalf("expected type/value lines, got %q", out)
	}
}

func TestToggleReturnsToStatementMode(t *testing.T) {
	s := NewSession()
	s.Submit("\x01")
	s.Submit("\x01")
	if s.ExpressionMode() || s.Prompt() != "> " {
		t.Fatalf("a second toggle should restore statement mode")
	}
}

func TestStatementModePrintsStackUsedSize(t *testing.T) {
	s := NewSession()
	out := s.Submit("let a = 1")
	if len(out) != 1 || out[0] != "stack used: 0" {
		t.Fatalf("statements should print the stack used-size, got %q", out)
	}
}

func TestBlockContinuationUntilBlankLine(t *testing.T) {
	s := NewSession()
	if out := s.Submit("if true:"); out != nil {
		t.Fatalf("a block header should start collecting, got %q", out)
	}
	if s.Prompt() != "... " {
		t.Fatalf("continuation prompt expected, got %q", s.Prompt())
	}
	if out := s.Submit(" let b = 2"); out != nil {
		t.Fatalf("continuation lines buffer silently, got %q", out)
	}
	out := s.Submit("")
	if len(out) != 1 || out[0] != "stack used: 0" {
		t.Fatalf("the blank line should run the block, got %q", out)
	}
}

func TestNamesPersistAcrossSubmissions(t *testing.T) {
	s := NewSession()
	s.Submit("var a = 20")
	s.Submit("\x01")
	out := s.Submit("a + 1")
	if len(out) != 2 || out[1] != "value: 21" {
		t.Fatalf("the root frame should persist across submissions, got %q", out)
	}
}

func TestErrorIsRenderedInPlace(t *testing.T) {
	s := NewSession()
	out := s.Submit("var x = missing")
	if len(out) == 0 || !strings.Contains(out[0], "unknown name") {
		t.Fatalf("expected an error rendering, got %q", out)
	}
}

func TestStackAndResetCommands(t *testing.T) {
	s := NewSession()
	s.Submit("var a = 1")
	out := s.Submit(":stack")
	if len(out) != 2 || !strings.HasPrefix(out[0], "stack used:") || !strings.HasPrefix(out[1], "heap size:") {
		t.Fatalf("unexpected :stack output %q", out)
	}
	out = s.Submit(":reset")
	if len(out) != 1 || out[0] != "runtime state reset" {
		t.Fatalf("unexpected :reset output %q", out)
	}
}

func TestTypeCommandReportsInputDescriptor(t *testing.T) {
	s := NewSession()
	if out := s.Submit(":type"); len(out) != 1 || out[0] != "no Input type defined" {
		t.Fatalf("unexpected :type output %q", out)
	}
	s.Submit("def Input = {a: sint32}")
	out := s.Submit(":type")
	if len(out) != 1 || out[0] != "input: {a: sint32}" {
		t.Fatalf("unexpected :type output %q", out)
	}
}
