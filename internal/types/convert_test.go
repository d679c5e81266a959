package types

import (
	"testing"

	"ruleslang/internal/source"
)

func TestIntegerWideningSameSignedness(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if !ConvertibleTo(in, b.SInt8, b.SInt32) {
		t.Fatalf("SINT8 <: SINT32 should hold")
	}
	if ConvertibleTo(in, b.SInt32, b.SInt8) {
		t.Fatalf("SINT32 <: SINT8 should not hold")
	}
}

func TestUnsignedToSignedRequiresStrictWidth(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if !ConvertibleTo(in, b.UInt8, b.SInt16) {
		t.Fatalf("UINT8 <: SINT16 should hold (8 < 16)")
	}
	if ConvertibleTo(in, b.UInt8, b.SInt8) {
		t.Fatalf("UINT8 <: SINT8 should not hold (8 !< 8)")
	}
}

func TestFloatWidening(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if !ConvertibleTo(in, b.FP32, b.FP64) {
		t.Fatalf("FP32 <: FP64 should hold")
	}
	if ConvertibleTo(in, b.FP64, b.FP32) {
		t.Fatalf("FP64 <: FP32 should not hold")
	}
}

func TestIntLiteralFitsAtomic(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	lit := in.Intern(SIntLit(100))
	if !ConvertibleTo(in, lit, b.SInt8) {
		t.Fatalf("100 should fit in SINT8")
	}
	big := in.Intern(SIntLit(1000))
	if ConvertibleTo(in, big, b.SInt8) {
		t.Fatalf("1000 should not fit in SINT8")
	}
	if !ConvertibleTo(in, big, b.SInt16) {
		t.Fatalf("1000 should fit in SINT16")
	}
}

func TestFloatLiteralPrefersFP32WhenRepresentable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	lit := in.Intern(FloatLit(1.5))
	if !ConvertibleTo(in, lit, b.FP32) {
		t.Fatalf("1.5 is exactly representable in FP32")
	}
}

func TestFloatLiteralFallsBackToFP64(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	lit := in.Intern(FloatLit(0.1 + 1e-30))
	if ConvertibleTo(in, lit, b.FP32) {
		t.Fatalf("did not expect exact FP32 representability for this value")
	}
	if !ConvertibleTo(in, lit, b.FP64) {
		t.Fatalf("every float literal should fit FP64")
	}
}

func TestArrayConversionRequiresElementConversionAndSize(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	arr8 := in.Intern(Array(b.SInt8, 3))
	arr32 := in.Intern(Array(b.SInt32, 3))
	arr32Unsized := in.Intern(Array(b.SInt32, ArrayUnsizedLength))
	arr32WrongSize := in.Intern(Array(b.SInt32, 4))

	if !ConvertibleTo(in, arr8, arr32) {
		t.Fatalf("element widening with matching size should convert")
	}
	if !ConvertibleTo(in, arr8, arr32Unsized) {
		t.Fatalf("target with unspecified size should accept any size")
	}
	if ConvertibleTo(in, arr8, arr32WrongSize) {
		t.Fatalf("mismatched fixed sizes should not convert")
	}
}

func TestTupleConversionIsPointwise(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	src := in.RegisterTuple([]TypeID{b.SInt8, b.UInt8})
	dst := in.RegisterTuple([]TypeID{b.SInt32, b.UInt16})
	if !ConvertibleTo(in, src, dst) {
		t.Fatalf("pointwise-widening tuples should convert")
	}
}

func TestStructWideningDropsExtraMembers(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	strings := source.NewInterner()
	x := strings.Intern("x")
	y := strings.Intern("y")
	z := strings.Intern("z")
	w := strings.Intern("w")
	src := in.RegisterStruct([]source.StringID{x, y, z}, []TypeID{b.SInt8, b.SInt8, b.Bool})
	dst := in.RegisterStruct([]source.StringID{x, y}, []TypeID{b.SInt32, b.SInt8})
	if !ConvertibleTo(in, src, dst) {
		t.Fatalf("struct with extra members should still widen when target names subset")
	}
	missing := in.RegisterStruct([]source.StringID{x, z, w}, []TypeID{b.SInt8, b.Bool, b.Bool})
	if ConvertibleTo(in, src, missing) {
		t.Fatalf("target requiring a name absent from source should not convert")
	}
}

func TestAnyTypeIsSupertypeOfReferenceTypes(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	arr := in.Intern(Array(b.SInt8, 2))
	if !ConvertibleTo(in, arr, b.Any) {
		t.Fatalf("every reference type should convert to AnyType")
	}
	if ConvertibleTo(in, b.Any, arr) {
		t.Fatalf("AnyType should not convert back to a specific reference type")
	}
}
