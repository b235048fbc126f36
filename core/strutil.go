package core

// utoa converts an unsigned integer to a string without the fmt package
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// appendTwoDigits appends n (0..99) zero padded to two digits
func appendTwoDigits(buf []byte, n uint8) []byte {
	return append(buf, '0'+n/10%10, '0'+n%10)
}

// hex8 formats a byte as two lowercase hex digits
func hex8(b uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}
