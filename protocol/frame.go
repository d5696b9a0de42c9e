package protocol

import "errors"

var (
	ErrFrameTooLong = errors.New("frame payload too long")
	ErrBadFrame     = errors.New("malformed frame")
)

// Encoder frames payloads for the firmware. Each frame carries the next
// sequence number in 0x10-0x1F so the host can count lost frames.
type Encoder struct {
	seq uint8
}

// Frame writes one complete frame to output. payload encodes the body.
func (e *Encoder) Frame(output OutputBuffer, payload func(output OutputBuffer)) error {
	cursor := output.CurPosition()

	output.Output([]byte{0, MessageDest | e.seq})
	payload(output)

	length := len(output.DataSince(cursor)) + MessageTrailerSize
	if length > MessageLengthMax {
		return ErrFrameTooLong
	}
	output.Update(cursor, uint8(length))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	e.seq = (e.seq + 1) & MessageSeqMask
	return nil
}

// Frame is a decoded frame body
type Frame struct {
	Sequence uint8
	Payload  []byte
}

// Decoder reassembles frames from a byte stream. Garbage, bad lengths and
// CRC failures drop it out of sync until the next sync byte.
type Decoder struct {
	buf          []byte
	synchronized bool
	frames       []Frame

	// Dropped counts frames or byte runs discarded while resynchronizing
	Dropped uint32
}

// NewDecoder returns a decoder expecting a frame boundary
func NewDecoder() *Decoder {
	return &Decoder{synchronized: true}
}

// Feed appends data and decodes every complete frame it can
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
	buf := d.buf

	for len(buf) > 0 {
		if !d.synchronized {
			syncPos := -1
			for i, b := range buf {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				buf = nil
				break
			}
			buf = buf[syncPos+1:]
			d.synchronized = true
			continue
		}

		if buf[0] == MessageValueSync {
			buf = buf[1:]
			continue
		}
		if len(buf) < MessageLengthMin {
			break
		}

		msgLen := int(buf[MessagePositionLen])
		seq := buf[MessagePositionSeq]
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax || seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}
		if len(buf) < msgLen {
			break
		}
		if buf[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}
		frameCRC := uint16(buf[msgLen-MessageTrailerCRC])<<8 |
			uint16(buf[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(buf[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageLengthMin)
		copy(payload, buf[MessageHeaderSize:msgLen-MessageTrailerSize])
		d.frames = append(d.frames, Frame{Sequence: seq & MessageSeqMask, Payload: payload})
		buf = buf[msgLen:]
	}

	d.buf = append(d.buf[:0], buf...)
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.Dropped++
}

// Frames returns and clears the decoded frames
func (d *Decoder) Frames() []Frame {
	frames := d.frames
	d.frames = nil
	return frames
}

// Buffered returns the number of bytes waiting for the rest of a frame
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
