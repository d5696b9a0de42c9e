package protocol

import "errors"

// Message identifiers, the first VLQ of every payload
const (
	MsgBoot   = 1
	MsgStatus = 2
)

var ErrUnknownMessage = errors.New("unknown message id")

// BootReport describes the clock tree the firmware ended up with
type BootReport struct {
	Version        uint32
	Fault          bool
	FailedStage    uint32
	Sysclk         uint32
	HCLK           uint32
	PCLK1          uint32
	PCLK2          uint32
	FlashLatency   uint32
	SysTickReload  uint32
	TicksPerSecond uint32
}

// StatusReport is sent once per indicator toggle
type StatusReport struct {
	Ticks   uint32
	Micros  uint32 // low 32 bits of the microsecond timestamp
	Toggles uint32
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// EncodeBoot writes a boot report payload
func EncodeBoot(output OutputBuffer, r *BootReport) {
	EncodeVLQUint(output, MsgBoot)
	for _, v := range [...]uint32{
		r.Version, boolToUint(r.Fault), r.FailedStage,
		r.Sysclk, r.HCLK, r.PCLK1, r.PCLK2,
		r.FlashLatency, r.SysTickReload, r.TicksPerSecond,
	} {
		EncodeVLQUint(output, v)
	}
}

// EncodeStatus writes a status report payload
func EncodeStatus(output OutputBuffer, r *StatusReport) {
	EncodeVLQUint(output, MsgStatus)
	EncodeVLQUint(output, r.Ticks)
	EncodeVLQUint(output, r.Micros)
	EncodeVLQUint(output, r.Toggles)
}

func decodeFields(data *[]byte, fields ...*uint32) error {
	for _, f := range fields {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

// Decode parses a frame payload into a *BootReport or *StatusReport
func Decode(payload []byte) (interface{}, error) {
	data := payload
	id, err := DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}
	switch id {
	case MsgBoot:
		var r BootReport
		var fault uint32
		if err := decodeFields(&data, &r.Version, &fault, &r.FailedStage,
			&r.Sysclk, &r.HCLK, &r.PCLK1, &r.PCLK2,
			&r.FlashLatency, &r.SysTickReload, &r.TicksPerSecond); err != nil {
			return nil, err
		}
		r.Fault = fault != 0
		return &r, nil
	case MsgStatus:
		var r StatusReport
		if err := decodeFields(&data, &r.Ticks, &r.Micros, &r.Toggles); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, ErrUnknownMessage
	}
}
