package vm

import (
	"encoding/binary"

	"fortio.org/safecast"
)

// Addr is a heap address: the byte offset of an object's IdentityHeader.
// 0 is the null reference.
type Addr = uint64

// Heap is the object arena for one rule evaluation: each object is an
// 8-byte IdentityHeader (the TypeIdentity index) followed by its
// kind-specific data segment. Offset 0 is reserved so a zero address
// always means null.
type Heap struct {
	mem []byte
}

func NewHeap() *Heap {
	return &Heap{mem: make([]byte, headerSize, 4096)}
}

// Reset discards every object (the shell's :reset).
func (h *Heap) Reset() {
	h.mem = h.mem[:headerSize]
}

// Size returns the heap's total byte extent, for shell introspection.
func (h *Heap) Size() uint64 { return uint64(len(h.mem)) }

// Alloc reserves a header plus dataSize zeroed bytes and returns the
// header address. Callers fill the data segment through Data/write
// helpers.
func (h *Heap) Alloc(identity IdentityID, dataSize uint32) Addr {
	addr := Addr(len(h.mem))
	total, err := safecast.Conv[int](uint64(headerSize) + uint64(dataSize))
	if err != nil {
		panic("vm: allocation size overflow")
	}
	h.mem = append(h.mem, make([]byte, total)...)
	binary.LittleEndian.PutUint64(h.mem[addr:], uint64(identity))
	return addr
}

// IdentityAt reads the identity header of the object at addr (invariant
// 4: every live reference's header names a registered identity).
func (h *Heap) IdentityAt(addr Addr) IdentityID {
	return IdentityID(binary.LittleEndian.Uint64(h.mem[addr:]))
}

// Data returns the object's data segment starting at the given offset.
func (h *Heap) Data(addr Addr, off uint32) []byte {
	return h.mem[addr+headerSize+uint64(off):]
}

// AllocArray allocates an ARRAY object: a size_t length followed by
// componentSize × length bytes, zero-filled.
func (h *Heap) AllocArray(identity IdentityID, componentSize uint32, length uint64) Addr {
	addr := h.Alloc(identity, uint32(lengthSize+uint64(componentSize)*length))
	binary.LittleEndian.PutUint64(h.Data(addr, 0), length)
	return addr
}

// AllocString allocates a STRING object with the given code units.
func (h *Heap) AllocString(identity IdentityID, unitSize uint32, units []uint64) Addr {
	addr := h.Alloc(identity, uint32(lengthSize+uint64(unitSize)*uint64(len(units))))
	binary.LittleEndian.PutUint64(h.Data(addr, 0), uint64(len(units)))
	for i, u := range units {
		writeScalar(h.Data(addr, lengthSize+uint32(i)*unitSize), unitSize, u)
	}
	return addr
}

// Length reads the size_t length field of an ARRAY or STRING object.
func (h *Heap) Length(addr Addr) uint64 {
	return binary.LittleEndian.Uint64(h.Data(addr, 0))
}

// ElemOffset computes the data-segment offset of element i of an ARRAY or
// STRING object: sizeof(length) + componentSize × i.
func ElemOffset(componentSize uint32, i uint64) uint32 {
	return lengthSize + uint32(uint64(componentSize)*i)
}

func writeScalar(dst []byte, size uint32, bits uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], bits)
	copy(dst[:size], tmp[:size])
}

func readScalar(src []byte, size uint32) uint64 {
	var tmp [8]byte
	copy(tmp[:size], src[:size])
	return binary.LittleEndian.Uint64(tmp[:])
}
