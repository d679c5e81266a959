// Package sema lowers a syntactic tree to a typed semantic tree: it
// resolves names in nested scopes, infers and checks types, inserts
// implicit conversions, narrows numeric literals, constant-folds pure
// subtrees, and validates control flow.
package sema

import (
	"ruleslang/internal/types"
)

// BlockKind classifies a scope block.
type BlockKind uint8

const (
	BlockShell BlockKind = iota
	BlockTopLevel
	BlockFunction
	BlockLoop
	BlockConditional
)

func (k BlockKind) String() string {
	switch k {
	case BlockShell:
		return "shell"
	case BlockTopLevel:
		return "top-level"
	case BlockFunction:
		return "function"
	case BlockLoop:
		return "loop"
	case BlockConditional:
		return "conditional"
	default:
		return "block"
	}
}

// Block is one scope level: a name→variable, name→type, and name→function
// mapping plus a parent link. Lookup walks parents; shadowing at inner
// depth is allowed, collision at the same depth is a semantic error.
type Block struct {
	Kind   BlockKind
	Parent *Block

	Vars  map[string]*Variable
	Types map[string]types.TypeID
	Funcs map[string][]*Function

	// Fn is set on BlockFunction: the function whose body this block is.
	Fn *Function
	// LoopLabel is set on BlockLoop when the loop carries a label.
	LoopLabel string

	// typeRefs records, for each type name defined in this block, the set
	// of other type names its definition references. Used by the cyclic
	// type check's transitive closure.
	typeRefs map[string][]string
}

func newBlock(kind BlockKind, parent *Block) *Block {
	return &Block{
		Kind:     kind,
		Parent:   parent,
		Vars:     make(map[string]*Variable),
		Types:    make(map[string]types.TypeID),
		Funcs:    make(map[string][]*Function),
		typeRefs: make(map[string][]string),
	}
}

// Context is the scope stack the analyzer threads through a compile. The
// shell keeps one alive across submissions so names persist between lines.
type Context struct {
	top *Block
}

// NewContext creates a context rooted at a block of the given kind.
func NewContext(root BlockKind) *Context {
	return &Context{top: newBlock(root, nil)}
}

func (c *Context) Push(kind BlockKind) *Block {
	c.top = newBlock(kind, c.top)
	return c.top
}

func (c *Context) Pop() {
	if c.top.Parent != nil {
		c.top = c.top.Parent
	}
}

func (c *Context) Top() *Block { return c.top }

// LookupVar resolves name walking parent blocks.
func (c *Context) LookupVar(name string) (*Variable, bool) {
	for b := c.top; b != nil; b = b.Parent {
		if v, ok := b.Vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupType resolves a type name walking parent blocks.
func (c *Context) LookupType(name string) (types.TypeID, bool) {
	for b := c.top; b != nil; b = b.Parent {
		if t, ok := b.Types[name]; ok {
			return t, true
		}
	}
	return types.NoTypeID, false
}

// LookupFuncs collects every overload of name visible from the current
// block, innermost first.
func (c *Context) LookupFuncs(name string) []*Function {
	var out []*Function
	for b := c.top; b != nil; b = b.Parent {
		out = append(out, b.Funcs[name]...)
	}
	return out
}

// definedHere reports whether name is already bound in the current block
// (as a variable, type, or function) — the same-depth collision check.
func (c *Context) definedHere(name string) bool {
	if _, ok := c.top.Vars[name]; ok {
		return true
	}
	if _, ok := c.top.Types[name]; ok {
		return true
	}
	if _, ok := c.top.Funcs[name]; ok {
		return true
	}
	return false
}

// enclosingFunction returns the nearest BlockFunction's function, or nil
// when the current position is top-level/shell code.
func (c *Context) enclosingFunction() *Function {
	for b := c.top; b != nil; b = b.Parent {
		if b.Kind == BlockFunction {
			return b.Fn
		}
	}
	return nil
}

// enclosingLoop reports whether a loop encloses the current position
// without crossing a function boundary; with a label, the loop must carry
// that label.
func (c *Context) enclosingLoop(label string) bool {
	for b := c.top; b != nil; b = b.Parent {
		if b.Kind == BlockFunction {
			return false
		}
		if b.Kind == BlockLoop {
			if label == "" || b.LoopLabel == label {
				return true
			}
		}
	}
	return false
}

// typeRefsClosure reports whether any name transitively referenced from
// start's definition reaches target, across all visible blocks.
func (c *Context) typeRefsClosure(start []string, target string) bool {
	seen := make(map[string]bool)
	work := append([]string(nil), start...)
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		if n == target {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		for b := c.top; b != nil; b = b.Parent {
			if refs, ok := b.typeRefs[n]; ok {
				work = append(work, refs...)
				break
			}
		}
	}
	return false
}
