package vm

import (
	"fmt"
	"strings"
	"sync"

	"ruleslang/internal/source"
	"ruleslang/internal/types"
)

// IdentityKind is the layout family a TypeIdentity describes.
type IdentityKind uint8

const (
	IdentityAny IdentityKind = iota
	IdentityTuple
	IdentityStruct
	IdentityArray
	IdentityString
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityAny:
		return "ANY"
	case IdentityTuple:
		return "TUPLE"
	case IdentityStruct:
		return "STRUCT"
	case IdentityArray:
		return "ARRAY"
	case IdentityString:
		return "STRING"
	default:
		return "?"
	}
}

// IdentityID indexes the process-wide identity table. Every heap object's
// header stores one; index 0 is the AnyType zero-data identity.
type IdentityID uint64

// headerSize is the IdentityHeader prefix on every heap object.
const headerSize = 8

// lengthSize is the size_t length field arrays and strings start with.
const lengthSize = 8

// TypeIdentity is an interned, process-global record of a concrete type's
// memory layout: one record per distinct layout, shared by every value of
// that layout.
type TypeIdentity struct {
	Kind IdentityKind

	// ComponentSize is the element size for ARRAY, the code-unit size
	// (1/2/4) for STRING.
	ComponentSize uint32

	// Tuple/struct member layout.
	MemberOffsets []uint32
	MemberSizes   []uint32
	MemberNames   []string // structs only
	DataSize      uint32   // fixed data segment size for tuple/struct

	// byName maps struct member names to member indices (structs only).
	byName map[string]int
}

// MemberByName returns the member index for a struct identity.
func (id *TypeIdentity) MemberByName(name string) (int, bool) {
	i, ok := id.byName[name]
	return i, ok
}

// identities is the process-wide interner. Append-only; a mutex guards
// insertion so concurrent rule evaluations can warm it safely, and reads
// go through the same lock-free snapshot path after lookup.
var identities = struct {
	mu    sync.RWMutex
	table []TypeIdentity
	index map[string]IdentityID
}{
	table: []TypeIdentity{{Kind: IdentityAny}},
	index: map[string]IdentityID{"any": 0},
}

// LookupIdentity returns the identity record for id.
func LookupIdentity(id IdentityID) *TypeIdentity {
	identities.mu.RLock()
	defer identities.mu.RUnlock()
	if int(id) >= len(identities.table) {
		return nil
	}
	return &identities.table[id]
}

// IdentityCount returns the number of registered identities.
func IdentityCount() int {
	identities.mu.RLock()
	defer identities.mu.RUnlock()
	return len(identities.table)
}

// InternIdentity returns the stable IdentityID for the concrete layout of
// t, interning it on first use. strs resolves struct member names.
func InternIdentity(in *types.Interner, strs *source.Interner, t types.TypeID) IdentityID {
	key, identity := buildIdentity(in, strs, t)

	identities.mu.RLock()
	id, ok := identities.index[key]
	identities.mu.RUnlock()
	if ok {
		return id
	}

	identities.mu.Lock()
	defer identities.mu.Unlock()
	if id, ok := identities.index[key]; ok {
		return id
	}
	id = IdentityID(len(identities.table))
	identities.table = append(identities.table, identity)
	identities.index[key] = id
	return id
}

// buildIdentity computes the layout record and its structural key. The
// key is uniquely determined by the layout (invariant 2), so two types
// with the same concrete layout share one identity.
func buildIdentity(in *types.Interner, strs *source.Interner, t types.TypeID) (string, TypeIdentity) {
	tt, ok := in.Lookup(t)
	if !ok {
		return "any", TypeIdentity{Kind: IdentityAny}
	}
	switch tt.Kind {
	case types.KindArray:
		comp := types.RuntimeSize(in, tt.Elem)
		return fmt.Sprintf("array:%d", comp), TypeIdentity{Kind: IdentityArray, ComponentSize: comp}

	case types.KindStringLit:
		info, _ := in.StringLitInfo(t)
		unit := uint32(1)
		switch info.Encoding {
		case types.UTF16:
			unit = 2
		case types.UTF32:
			unit = 4
		}
		return fmt.Sprintf("string:%d", unit), TypeIdentity{Kind: IdentityString, ComponentSize: unit}

	case types.KindTuple:
		info, _ := in.TupleInfo(t)
		offsets, sizes, total := memberLayout(in, info.Members)
		var key strings.Builder
		key.WriteString("tuple")
		for i := range sizes {
			fmt.Fprintf(&key, ":%d@%d", sizes[i], offsets[i])
		}
		return key.String(), TypeIdentity{
			Kind:          IdentityTuple,
			MemberOffsets: offsets,
			MemberSizes:   sizes,
			DataSize:      total,
		}

	case types.KindStruct:
		info, _ := in.StructInfo(t)
		offsets, sizes, total := memberLayout(in, info.Types)
		names := make([]string, len(info.Names))
		byName := make(map[string]int, len(info.Names))
		var key strings.Builder
		key.WriteString("struct")
		for i, n := range info.Names {
			names[i] = strs.MustLookup(n)
			byName[names[i]] = i
			fmt.Fprintf(&key, ":%s=%d@%d", names[i], sizes[i], offsets[i])
		}
		return key.String(), TypeIdentity{
			Kind:          IdentityStruct,
			MemberOffsets: offsets,
			MemberSizes:   sizes,
			MemberNames:   names,
			DataSize:      total,
			byName:        byName,
		}

	default:
		return "any", TypeIdentity{Kind: IdentityAny}
	}
}

// memberLayout computes member offsets the same way frame slots are laid
// out: each member aligned to its own size, in declaration order.
func memberLayout(in *types.Interner, members []types.TypeID) (offsets, sizes []uint32, total uint32) {
	offsets = make([]uint32, len(members))
	sizes = make([]uint32, len(members))
	for i, m := range members {
		size := types.RuntimeSize(in, m)
		if size == 0 {
			size = 1
		}
		if pad := total % size; pad != 0 {
			total += size - pad
		}
		offsets[i] = total
		sizes[i] = size
		total += size
	}
	return offsets, sizes, total
}
