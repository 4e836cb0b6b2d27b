// Package fieldreader implements the typed-field reader (F): decoding one
// scalar.Value out of a byte offset inside an arbitrary message payload.
//
// The bounds-then-decode shape follows internal/bus/modbus's register
// unpacking (itself adapted from the teacher's poller/modbus client):
// validate geometry first, decode second, never mix the two.
package fieldreader

import (
	"fmt"

	"github.com/flightsw/limitchecker/internal/lcerr"
	"github.com/flightsw/limitchecker/internal/scalar"
)

// Read extracts a scalar.Value of type dt from payload at offset, per
// spec §4.1: bounds check, alignment check, endianness decode.
func Read(payload []byte, offset uint32, dt scalar.DataType) (scalar.Value, error) {
	if dt == scalar.Undefined {
		return scalar.Value{}, lcerr.New(lcerr.FieldReadFault, "undefined data type")
	}

	size := dt.Size()
	off := int(offset)
	if off < 0 || off+size > len(payload) {
		return scalar.Value{}, lcerr.New(lcerr.FieldReadFault,
			fmt.Sprintf("offset %d + size %d exceeds payload length %d", offset, size, len(payload)))
	}

	if size > 1 && offset%uint32(size) != 0 {
		return scalar.Value{}, lcerr.New(lcerr.FieldReadFault,
			fmt.Sprintf("offset %d misaligned for %d-byte type", offset, size))
	}

	switch dt {
	case scalar.U8:
		return scalar.FromUint(dt, uint32(payload[off])), nil
	case scalar.I8:
		return scalar.FromInt(dt, int32(int8(payload[off]))), nil

	case scalar.U16BE, scalar.U16LE:
		v := dt.ByteOrder().Uint16(payload[off : off+2])
		return scalar.FromUint(dt, uint32(v)), nil
	case scalar.I16BE, scalar.I16LE:
		v := dt.ByteOrder().Uint16(payload[off : off+2])
		return scalar.FromInt(dt, int32(int16(v))), nil

	case scalar.U32BE, scalar.U32LE:
		v := dt.ByteOrder().Uint32(payload[off : off+4])
		return scalar.FromUint(dt, v), nil
	case scalar.I32BE, scalar.I32LE:
		v := dt.ByteOrder().Uint32(payload[off : off+4])
		return scalar.FromInt(dt, int32(v)), nil

	case scalar.F32BE, scalar.F32LE:
		bits := dt.ByteOrder().Uint32(payload[off : off+4])
		return scalar.Value{Type: dt, Raw: bits}, nil

	default:
		return scalar.Value{}, lcerr.New(lcerr.FieldReadFault, "unsupported data type")
	}
}
