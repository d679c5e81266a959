package vm

import (
	"ruleslang/internal/types"
)

// The bridge helpers below are the heap surface the rule JSON layer uses
// to materialize input objects and read results without touching raw
// layout math.

// AllocComposite allocates a zeroed tuple/struct object of type t.
func (m *Machine) AllocComposite(t types.TypeID) Addr {
	identity := InternIdentity(m.in, m.strs, t)
	return m.Heap.Alloc(identity, LookupIdentity(identity).DataSize)
}

// AllocArrayValue allocates a zeroed array object of type t with the
// given length.
func (m *Machine) AllocArrayValue(t types.TypeID, length uint64) Addr {
	identity := InternIdentity(m.in, m.strs, t)
	return m.Heap.AllocArray(identity, LookupIdentity(identity).ComponentSize, length)
}

// WriteMember stores a member's bit pattern by index.
func (m *Machine) WriteMember(addr Addr, i int, bits uint64) {
	record := LookupIdentity(m.Heap.IdentityAt(addr))
	writeScalar(m.Heap.Data(addr, record.MemberOffsets[i]), record.MemberSizes[i], bits)
}

// ReadMember loads a member's bit pattern by index.
func (m *Machine) ReadMember(addr Addr, i int) uint64 {
	record := LookupIdentity(m.Heap.IdentityAt(addr))
	return readScalar(m.Heap.Data(addr, record.MemberOffsets[i]), record.MemberSizes[i])
}

// WriteElement stores an array element's bit pattern.
func (m *Machine) WriteElement(addr Addr, i uint64, bits uint64) {
	record := LookupIdentity(m.Heap.IdentityAt(addr))
	writeScalar(m.Heap.Data(addr, ElemOffset(record.ComponentSize, i)), record.ComponentSize, bits)
}

// ReadElement loads an array element's bit pattern.
func (m *Machine) ReadElement(addr Addr, i uint64) uint64 {
	record := LookupIdentity(m.Heap.IdentityAt(addr))
	return readScalar(m.Heap.Data(addr, ElemOffset(record.ComponentSize, i)), record.ComponentSize)
}
