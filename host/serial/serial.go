package serial

import (
	"errors"
	"io"
	"time"
)

// Port is the host end of the firmware's report link. The firmware only
// talks, so the port is read-only apart from Flush. Implementations:
// - Native serial (using github.com/tarm/serial)
// - In-memory readers (for testing)
type Port interface {
	io.ReadCloser

	// Flush discards anything received but not yet read, so a monitor
	// session starts on fresh frames
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the firmware's UART
	Baud int

	// Read timeout (0 = blocking)
	ReadTimeout time.Duration
}

var ErrNoDevice = errors.New("no serial device given")

// DefaultConfig returns the firmware's link settings: 115200 8N1
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 200 * time.Millisecond,
	}
}

// Validate checks the config before a port is opened
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return errors.New("baud rate must be positive")
	}
	if c.ReadTimeout < 0 {
		return errors.New("read timeout must not be negative")
	}
	return nil
}
