// Package protocol implements the framed report stream the firmware sends
// to the host: VLQ-encoded fields in CRC16-checked frames, the same framing
// Klipper uses on its serial link.
package protocol

// Version is the report protocol version carried in the boot report
const Version = 1

// Frame layout: len | seq | payload | crc-hi | crc-lo | sync
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	MessageSeqMask = 0x0F

	// MessageMax bounds the firmware's scratch buffer
	MessageMax = 128
)
