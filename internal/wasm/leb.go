// Package wasm emits WebAssembly binary modules: LEB128 primitives, section
// framing, and a Module builder that assembles the section payloads in the
// order the format requires.
package wasm

import (
	"encoding/binary"
	"math"
)

// AppendULEB128 appends v in unsigned LEB128 form.
func AppendULEB128(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

// AppendSLEB128 appends v in signed LEB128 form.
func AppendSLEB128(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBit := b&0x40 != 0
		if (v == 0 && !signBit) || (v == -1 && signBit) {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// AppendF64 appends the little-endian IEEE 754 bits of v.
func AppendF64(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}

// AppendName appends a length-prefixed UTF-8 name.
func AppendName(buf []byte, s string) []byte {
	buf = AppendULEB128(buf, uint64(len(s)))
	return append(buf, s...)
}
