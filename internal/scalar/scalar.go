// Package scalar implements the tagged multi-type value used throughout LC
// in place of the original C union (LC_MultiType_t) aliasing trick: every
// watchpoint value, comparison constant, and transition record is carried
// as a scalar.Value tagged with the DataType it was decoded from.
package scalar

import (
	"encoding/binary"
	"math"
)

// DataType enumerates the eight scalar watchpoint types. Multi-byte types
// fold their endianness into the tag itself, per spec.
type DataType uint8

const (
	Undefined DataType = iota
	U8
	I8
	U16BE
	U16LE
	I16BE
	I16LE
	U32BE
	U32LE
	I32BE
	I32LE
	F32BE
	F32LE
)

// Size returns the on-wire byte width of dt, or 0 for Undefined.
func (dt DataType) Size() int {
	switch dt {
	case U8, I8:
		return 1
	case U16BE, U16LE, I16BE, I16LE:
		return 2
	case U32BE, U32LE, I32BE, I32LE, F32BE, F32LE:
		return 4
	default:
		return 0
	}
}

// IsFloat reports whether dt is a floating-point type.
func (dt DataType) IsFloat() bool {
	return dt == F32BE || dt == F32LE
}

// IsSigned reports whether dt is a signed integer type.
func (dt DataType) IsSigned() bool {
	switch dt {
	case I8, I16BE, I16LE, I32BE, I32LE:
		return true
	default:
		return false
	}
}

// ByteOrder returns the endianness to use when decoding dt. Single-byte
// types have no endianness; callers must not call this for them.
func (dt DataType) ByteOrder() binary.ByteOrder {
	switch dt {
	case U16LE, I16LE, U32LE, I32LE, F32LE:
		return binary.LittleEndian
	default:
		return binary.BigEndian
	}
}

// Value is a decoded or comparison-constant scalar, tagged with the type it
// belongs to. Exactly one of the interpretation methods below is meaningful
// for a given Type; Raw always holds the 32-bit widened bit pattern as
// produced by the typed-field reader (sign-extended for signed integers,
// zero-extended for unsigned, bit-pattern-preserved for F32).
type Value struct {
	Type DataType
	Raw  uint32
}

// FromUint widens an unsigned integer of the given type into a Value.
func FromUint(dt DataType, v uint32) Value {
	return Value{Type: dt, Raw: v}
}

// FromInt sign-extends a signed integer of the given type into a Value.
func FromInt(dt DataType, v int32) Value {
	return Value{Type: dt, Raw: uint32(v)}
}

// FromFloat32 packs an IEEE-754 float32 into a Value.
func FromFloat32(dt DataType, v float32) Value {
	return Value{Type: dt, Raw: math.Float32bits(v)}
}

// AsUint32 returns the zero-extended unsigned interpretation of v.
func (v Value) AsUint32() uint32 { return v.Raw }

// AsInt32 returns the sign-extended signed interpretation of v.
func (v Value) AsInt32() int32 { return int32(v.Raw) }

// AsFloat32 returns the IEEE-754 float32 interpretation of v.
func (v Value) AsFloat32() float32 { return math.Float32frombits(v.Raw) }

// Mask applies a bit mask to the integer reinterpretation of v. Float
// values are returned unmasked, matching spec §3's "floats: mask ignored".
func (v Value) Mask(bitMask uint32) Value {
	if v.Type.IsFloat() {
		return v
	}
	return Value{Type: v.Type, Raw: v.Raw & bitMask}
}
