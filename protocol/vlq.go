package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// vlqMaxGroups bounds one encoded value; five 7-bit groups cover 32 bits
const vlqMaxGroups = 5

// vlqGroups returns how many 7-bit groups v needs. Each group widens the
// range by 7 bits; the first group reserves two sign bits so [-32, 96) fits
// in one byte.
func vlqGroups(v int32) int {
	lo, hi := int64(-1)<<5, int64(3)<<5
	n := 1
	for n < vlqMaxGroups && (int64(v) < lo || int64(v) >= hi) {
		lo <<= 7
		hi <<= 7
		n++
	}
	return n
}

// EncodeVLQInt writes v as a variable length quantity, most significant
// group first, with the high bit set on every byte but the last.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var buf [vlqMaxGroups]byte
	n := vlqGroups(v)
	for i := 0; i < n; i++ {
		buf[i] = byte(v>>(7*uint(n-1-i))) & 0x7F
		if i < n-1 {
			buf[i] |= 0x80
		}
	}
	output.Output(buf[:n])
}

// EncodeVLQUint writes an unsigned value; it shares the signed encoding
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one value and advances data past it
func DecodeVLQInt(data *[]byte) (int32, error) {
	if len(*data) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32((*data)[0])
	*data = (*data)[1:]

	v := c & 0x7F
	if (c & 0x60) == 0x60 {
		v |= ^uint32(0x1F)
	}

	for groups := 1; c&0x80 != 0; groups++ {
		if groups == vlqMaxGroups {
			return 0, ErrInvalidVLQ
		}
		if len(*data) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint32((*data)[0])
		*data = (*data)[1:]
		v = v<<7 | c&0x7F
	}

	return int32(v), nil
}

// DecodeVLQUint reads one unsigned value and advances data past it
func DecodeVLQUint(data *[]byte) (uint32, error) {
	val, err := DecodeVLQInt(data)
	return uint32(val), err
}
