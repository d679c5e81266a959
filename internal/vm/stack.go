package vm

import (
	"encoding/binary"
	"fmt"
)

// Stack is the value stack: a contiguous byte buffer with a used-size
// cursor. Every value begins at an offset aligned to its own size; pushes
// pad, pops un-pad (a side stack of marks remembers each value's
// pre-push used-size, so pop restores the exact cursor).
type Stack struct {
	buf   []byte
	used  uint32
	marks []stackMark
}

type stackMark struct {
	prevUsed uint32
	start    uint32
	size     uint32
}

func NewStack() *Stack {
	return &Stack{buf: make([]byte, 0, 1024)}
}

// UsedSize returns the current cursor, which the shell prints after each
// statement submission.
func (s *Stack) UsedSize() uint32 { return s.used }

// Reset discards every value.
func (s *Stack) Reset() {
	s.used = 0
	s.marks = s.marks[:0]
}

func (s *Stack) grow(n uint32) {
	need := int(s.used + n)
	for len(s.buf) < need {
		s.buf = append(s.buf, make([]byte, need-len(s.buf))...)
	}
}

// push reserves size bytes aligned to size and returns the value's start.
func (s *Stack) push(size uint32) uint32 {
	prev := s.used
	if pad := s.used % size; pad != 0 {
		s.used += size - pad
	}
	start := s.used
	s.grow(size)
	s.used += size
	s.marks = append(s.marks, stackMark{prevUsed: prev, start: start, size: size})
	return start
}

// pop releases the topmost value, restoring the pre-push used-size, and
// returns its start offset (the bytes stay valid until the next push).
func (s *Stack) pop(size uint32) uint32 {
	n := len(s.marks)
	if n == 0 {
		panic("vm: pop on an empty stack")
	}
	m := s.marks[n-1]
	if m.size != size {
		panic(fmt.Sprintf("vm: pop size %d does not match pushed size %d", size, m.size))
	}
	s.marks = s.marks[:n-1]
	s.used = m.prevUsed
	return m.start
}

// PushBytes pushes a value's raw bytes (len(b) is the value's size).
func (s *Stack) PushBytes(b []byte) {
	start := s.push(uint32(len(b)))
	copy(s.buf[start:], b)
}

// PopBytes pops the topmost value of the given size into out.
func (s *Stack) PopBytes(size uint32, out []byte) {
	start := s.pop(size)
	copy(out, s.buf[start:start+size])
}

// PeekBytes reads the topmost value without popping it.
func (s *Stack) PeekBytes(size uint32, out []byte) {
	n := len(s.marks)
	if n == 0 {
		panic("vm: peek on an empty stack")
	}
	m := s.marks[n-1]
	if m.size != size {
		panic(fmt.Sprintf("vm: peek size %d does not match pushed size %d", size, m.size))
	}
	copy(out, s.buf[m.start:m.start+size])
}

// PushScalar pushes a value of the given byte size from a 64-bit pattern
// (little-endian, truncated to size).
func (s *Stack) PushScalar(size uint32, bits uint64) {
	start := s.push(size)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], bits)
	copy(s.buf[start:start+size], tmp[:size])
}

// PopScalar pops a value of the given byte size as a zero-extended 64-bit
// pattern.
func (s *Stack) PopScalar(size uint32) uint64 {
	start := s.pop(size)
	var tmp [8]byte
	copy(tmp[:size], s.buf[start:start+size])
	return binary.LittleEndian.Uint64(tmp[:])
}
