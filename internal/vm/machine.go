package vm

import (
	"ruleslang/internal/sema"
	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

// FlowAction is the control-flow result of a statement evaluation.
type FlowAction uint8

const (
	FlowProceed FlowAction = iota
	FlowRerun
	FlowBreak
	FlowContinue
	FlowReturn
)

// Flow carries a statement's control-flow outcome; Label qualifies
// BREAK/CONTINUE when the source named a loop.
type Flow struct {
	Action FlowAction
	Label  string
}

var proceed = Flow{Action: FlowProceed}

// EvalHooks exposes evaluation events to tests. OnOtherEvaluated fires
// each time an array literal's catch-all value is evaluated, making the
// "evaluated exactly once" rule directly observable.
type EvalHooks struct {
	OnOtherEvaluated func()
}

// Machine executes a semantic program over one stack and one heap. The
// shell reuses a Machine across submissions; rule execution builds a
// fresh one per runRule invocation.
type Machine struct {
	Stack *Stack
	Heap  *Heap
	Hooks EvalHooks

	in   *types.Interner
	strs *source.Interner

	rootFrame []byte
	frames    [][]byte

	input     Addr
	inputType types.TypeID
}

func NewMachine(in *types.Interner, strs *source.Interner) *Machine {
	return &Machine{
		Stack: NewStack(),
		Heap:  NewHeap(),
		in:    in,
		strs:  strs,
	}
}

// SetInput binds the rule input object for context field access.
func (m *Machine) SetInput(addr Addr, inputType types.TypeID) {
	m.input = addr
	m.inputType = inputType
}

// Reset drops all runtime state: stack, heap, frames, input.
func (m *Machine) Reset() {
	m.Stack.Reset()
	m.Heap.Reset()
	m.rootFrame = nil
	m.frames = nil
	m.input = 0
}

// EnsureRootFrame grows the root frame (top-level locals) to size. The
// shell's root frame grows monotonically as submissions declare more.
func (m *Machine) EnsureRootFrame(size uint32) {
	if uint32(len(m.rootFrame)) < size {
		m.rootFrame = append(m.rootFrame, make([]byte, int(size)-len(m.rootFrame))...)
	}
}

func (m *Machine) frameFor(v *sema.Variable) []byte {
	if v.Owner == nil {
		return m.rootFrame
	}
	return m.frames[len(m.frames)-1]
}

func (m *Machine) sizeOf(t types.TypeID) uint32 {
	size := types.RuntimeSize(m.in, t)
	if size == 0 {
		size = 1
	}
	return size
}

// Exec runs the program's top-level statements. A RETURN flow leaves the
// returned value on the stack for the caller (the rule driver) to read.
func (m *Machine) Exec(prog *sema.Program) (Flow, *Error) {
	m.EnsureRootFrame(prog.FrameSize)
	return m.execStmts(prog.Stmts)
}

func (m *Machine) execStmts(stmts []*sema.Stmt) (Flow, *Error) {
	for _, s := range stmts {
		flow, err := m.execStmt(s)
		if err != nil {
			return proceed, err
		}
		if flow.Action != FlowProceed {
			return flow, nil
		}
	}
	return proceed, nil
}

func (m *Machine) execStmt(s *sema.Stmt) (Flow, *Error) {
	switch s.Kind {
	case sema.SDeclare:
		frame := m.frameFor(s.Var)
		slot := frame[s.Var.Slot : s.Var.Slot+s.Var.Size]
		if s.Value == nil {
			for i := range slot {
				slot[i] = 0
			}
			return proceed, nil
		}
		if err := m.evalExpr(s.Value); err != nil {
			return proceed, err
		}
		m.Stack.PopBytes(s.Var.Size, slot)
		return proceed, nil

	case sema.SAssign:
		return proceed, m.execAssign(s)

	case sema.SCallStmt:
		if err := m.evalExpr(s.Call); err != nil {
			return proceed, err
		}
		if ret := s.Call.Callee.Return; ret != types.NoTypeID {
			size := m.sizeOf(ret)
			m.Stack.pop(size)
		}
		return proceed, nil

	case sema.SCond:
		for _, block := range s.Blocks {
			if err := m.evalExpr(block.Cond); err != nil {
				return proceed, err
			}
			if m.Stack.PopScalar(1) != 0 {
				return m.execStmts(block.Body)
			}
		}
		return m.execStmts(s.Else)

	case sema.SLoop:
		for {
			if err := m.evalExpr(s.Cond); err != nil {
				return proceed, err
			}
			if m.Stack.PopScalar(1) == 0 {
				return proceed, nil
			}
			flow, err := m.execStmts(s.Body)
			if err != nil {
				return proceed, err
			}
			switch flow.Action {
			case FlowProceed:
			case FlowContinue:
				if flow.Label != "" && flow.Label != s.Label {
					return flow, nil
				}
			case FlowBreak:
				if flow.Label != "" && flow.Label != s.Label {
					return flow, nil
				}
				return proceed, nil
			default:
				return flow, nil
			}
		}

	case sema.SReturn:
		if s.Value != nil {
			if err := m.evalExpr(s.Value); err != nil {
				return proceed, err
			}
		}
		return Flow{Action: FlowReturn}, nil

	case sema.SBreak:
		return Flow{Action: FlowBreak, Label: s.Label}, nil
	case sema.SContinue:
		return Flow{Action: FlowContinue, Label: s.Label}, nil

	case sema.SExprResult:
		return proceed, m.evalExpr(s.Value)

	default:
		return proceed, nil
	}
}

// execAssign stores a value through an assignable target: a variable
// slot, a struct/tuple member, or an array element. The target's
// object/index subexpressions evaluate before the value does.
func (m *Machine) execAssign(s *sema.Stmt) *Error {
	target := s.Target
	size := m.sizeOf(target.Type)

	switch target.Kind {
	case sema.EVarRef:
		if err := m.evalExpr(s.Value); err != nil {
			return err
		}
		frame := m.frameFor(target.Var)
		m.Stack.PopBytes(target.Var.Size, frame[target.Var.Slot:target.Var.Slot+target.Var.Size])
		return nil

	case sema.EFieldAccess:
		addr, off, _, err := m.memberLocation(target)
		if err != nil {
			return err
		}
		if err := m.evalExpr(s.Value); err != nil {
			return err
		}
		start := m.Stack.pop(size)
		copy(m.Heap.Data(addr, off)[:size], m.Stack.buf[start:start+size])
		return nil

	case sema.EIndexAccess:
		addr, off, compSize, err := m.elementLocation(target)
		if err != nil {
			return err
		}
		if err := m.evalExpr(s.Value); err != nil {
			return err
		}
		start := m.Stack.pop(compSize)
		copy(m.Heap.Data(addr, off)[:compSize], m.Stack.buf[start:start+compSize])
		return nil

	default:
		panic("vm: assignment target survived analysis without being assignable")
	}
}
