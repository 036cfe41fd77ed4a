package mcs

import (
	"io"
)

// MaxVarintLen is the maximum encoded length of uint64.
const MaxVarintLen = 10

// ReadVarint decodes base-128 unsigned integer, least significant group first.
func ReadVarint(r io.ByteReader) (uint64, error) {
	var x uint64
	var shift uint
	for i := 0; i < MaxVarintLen; i++ {
		b, err := r.ReadByte()
		if err == io.EOF {
			if i == 0 {
				return 0, io.EOF
			}
			return 0, ErrTruncated
		}
		if err != nil {
			return 0, err
		}
		x |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return x, nil
		}
		shift += 7
	}
	return 0, ErrVarintOverflow
}

// AppendVarint appends encoded v to b. Zero encodes to single byte 0x00.
func AppendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// VarintLen returns number of bytes AppendVarint would append.
func VarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
