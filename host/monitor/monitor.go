// Package monitor follows the firmware's report stream and checks its tick
// against host wall time.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"f4tick/core"
	"f4tick/protocol"
)

// Sample is one status report stamped with host time
type Sample struct {
	Host    time.Time
	Ticks   uint64 // unwrapped tick count
	Micros  uint32
	Toggles uint32
}

// Monitor decodes frames from the firmware and collects status samples
type Monitor struct {
	decoder *protocol.Decoder

	// Now stamps incoming data; time.Now unless a test replaces it
	Now func() time.Time

	// OnBoot and OnStatus, when set, run as reports arrive
	OnBoot   func(*protocol.BootReport)
	OnStatus func(Sample)

	Boot    *protocol.BootReport
	Samples []Sample

	// Lost counts frames missing from the sequence
	Lost uint32
	// Undecodable counts frames that passed the CRC but not Decode
	Undecodable uint32

	lastSeq  int
	lastTick uint32
	ticks    uint64
}

// New creates a monitor with no reports yet
func New() *Monitor {
	return &Monitor{
		decoder: protocol.NewDecoder(),
		Now:     time.Now,
		lastSeq: -1,
	}
}

// Dropped returns the number of byte runs the decoder discarded
func (m *Monitor) Dropped() uint32 {
	return m.decoder.Dropped
}

// Process feeds received bytes. Every frame completed by data is stamped
// with at.
func (m *Monitor) Process(data []byte, at time.Time) {
	m.decoder.Feed(data)
	for _, frame := range m.decoder.Frames() {
		m.trackSequence(frame.Sequence)

		msg, err := protocol.Decode(frame.Payload)
		if err != nil {
			m.Undecodable++
			continue
		}
		switch r := msg.(type) {
		case *protocol.BootReport:
			m.handleBoot(r)
		case *protocol.StatusReport:
			m.handleStatus(r, at)
		}
	}
}

func (m *Monitor) trackSequence(seq uint8) {
	if m.lastSeq >= 0 {
		expected := uint8(m.lastSeq+1) & protocol.MessageSeqMask
		m.Lost += uint32((seq - expected) & protocol.MessageSeqMask)
	}
	m.lastSeq = int(seq)
}

// handleBoot starts a new session: the firmware restarted
func (m *Monitor) handleBoot(r *protocol.BootReport) {
	m.Boot = r
	m.Samples = nil
	m.ticks = 0
	m.lastTick = 0
	if m.OnBoot != nil {
		m.OnBoot(r)
	}
}

func (m *Monitor) handleStatus(r *protocol.StatusReport, at time.Time) {
	if len(m.Samples) == 0 {
		m.ticks = uint64(r.Ticks)
	} else {
		m.ticks += uint64(core.Elapsed(m.lastTick, r.Ticks))
	}
	m.lastTick = r.Ticks

	s := Sample{Host: at, Ticks: m.ticks, Micros: r.Micros, Toggles: r.Toggles}
	m.Samples = append(m.Samples, s)
	if m.OnStatus != nil {
		m.OnStatus(s)
	}
}

// Run reads r until it returns EOF or ctx is done. Reads that return no
// data (a serial read timeout) just loop.
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			m.Process(buf[:n], m.Now())
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read report stream: %w", err)
		}
	}
}

// Nominal returns the tick rate the firmware reported, or the default
// before a boot report has been seen
func (m *Monitor) Nominal() uint32 {
	if m.Boot != nil && m.Boot.TicksPerSecond != 0 {
		return m.Boot.TicksPerSecond
	}
	return core.TicksPerSecond
}

// Estimate fits the collected samples
func (m *Monitor) Estimate() (Rate, error) {
	return EstimateRate(m.Samples, m.Nominal())
}
