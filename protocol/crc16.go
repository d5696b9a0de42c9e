package protocol

// CRC16 is the CCITT CRC (0xFFFF seed, reflected nibble form) Klipper's
// framing uses; the frame carries it big-endian
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
