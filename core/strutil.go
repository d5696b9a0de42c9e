package core

// utoa converts an unsigned integer to a string without the fmt package,
// which is too heavy to link into the firmware image
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

// Utoa is utoa for target code outside this package
func Utoa(n uint32) string {
	return utoa(n)
}
