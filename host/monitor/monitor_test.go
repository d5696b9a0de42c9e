package monitor

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"f4tick/protocol"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type firmware struct {
	enc protocol.Encoder
}

func (f *firmware) frame(t *testing.T, payload func(protocol.OutputBuffer)) []byte {
	t.Helper()
	output := protocol.NewScratchOutput()
	if err := f.enc.Frame(output, payload); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	return append([]byte(nil), output.Result()...)
}

func (f *firmware) boot(t *testing.T) []byte {
	r := protocol.BootReport{
		Version: protocol.Version, Sysclk: 168000000, HCLK: 168000000,
		PCLK1: 42000000, PCLK2: 84000000, FlashLatency: 5,
		SysTickReload: 167999, TicksPerSecond: 1000,
	}
	return f.frame(t, func(o protocol.OutputBuffer) { protocol.EncodeBoot(o, &r) })
}

func (f *firmware) status(t *testing.T, ticks, toggles uint32) []byte {
	r := protocol.StatusReport{Ticks: ticks, Micros: ticks * 1000, Toggles: toggles}
	return f.frame(t, func(o protocol.OutputBuffer) { protocol.EncodeStatus(o, &r) })
}

func TestMonitorBootAndStatus(t *testing.T) {
	var fw firmware
	m := New()

	var boots, statuses int
	m.OnBoot = func(*protocol.BootReport) { boots++ }
	m.OnStatus = func(Sample) { statuses++ }

	m.Process(fw.boot(t), epoch)
	for i := uint32(0); i < 5; i++ {
		m.Process(fw.status(t, 500*i, i), epoch.Add(time.Duration(i)*500*time.Millisecond))
	}

	if m.Boot == nil || m.Boot.HCLK != 168000000 {
		t.Fatalf("Boot report not captured: %+v", m.Boot)
	}
	if boots != 1 || statuses != 5 {
		t.Errorf("Callbacks ran %d/%d times", boots, statuses)
	}
	if len(m.Samples) != 5 || m.Samples[4].Ticks != 2000 {
		t.Errorf("Unexpected samples %+v", m.Samples)
	}
	if m.Lost != 0 || m.Dropped() != 0 {
		t.Errorf("Expected a clean stream, lost %d dropped %d", m.Lost, m.Dropped())
	}
}

func TestMonitorCountsLostFrames(t *testing.T) {
	var fw firmware
	m := New()

	m.Process(fw.status(t, 0, 0), epoch)
	fw.status(t, 500, 1) // never arrives
	fw.status(t, 1000, 2)
	m.Process(fw.status(t, 1500, 3), epoch)

	if m.Lost != 2 {
		t.Errorf("Expected 2 lost frames, got %d", m.Lost)
	}
}

func TestMonitorUnwrapsTicks(t *testing.T) {
	var fw firmware
	m := New()

	start := uint32(0xFFFFFE00)
	for i := uint32(0); i < 4; i++ {
		m.Process(fw.status(t, start+i*500, i), epoch)
	}

	for i, s := range m.Samples {
		if want := uint64(start) + uint64(i)*500; s.Ticks != want {
			t.Errorf("Sample %d: expected %d ticks, got %d", i, want, s.Ticks)
		}
	}
}

func TestMonitorBootResetsSession(t *testing.T) {
	var fw firmware
	m := New()

	m.Process(fw.status(t, 100, 1), epoch)
	m.Process(fw.boot(t), epoch)
	m.Process(fw.status(t, 0, 0), epoch)

	if len(m.Samples) != 1 || m.Samples[0].Ticks != 0 {
		t.Errorf("Expected samples to restart after boot, got %+v", m.Samples)
	}
}

func TestMonitorUndecodable(t *testing.T) {
	var fw firmware
	m := New()
	m.Process(fw.frame(t, func(o protocol.OutputBuffer) { o.Output([]byte{0x42}) }), epoch)
	if m.Undecodable != 1 {
		t.Errorf("Expected 1 undecodable frame, got %d", m.Undecodable)
	}
}

// chunkReader returns one chunk per Read
type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestRunEstimatesRate(t *testing.T) {
	var fw firmware
	r := &chunkReader{}
	r.chunks = append(r.chunks, fw.boot(t), nil)
	for i := uint32(0); i < 10; i++ {
		// 1001 ticks per host second: the firmware runs 1000 ppm fast
		r.chunks = append(r.chunks, fw.status(t, 1001*i, i))
	}

	m := New()
	now := epoch
	m.Now = func() time.Time {
		at := now
		now = now.Add(time.Second)
		return at
	}
	if err := m.Run(context.Background(), r); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rate, err := m.Estimate()
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if math.Abs(rate.TicksPerSecond-1001) > 1e-6 {
		t.Errorf("Expected 1001 ticks/s, got %f", rate.TicksPerSecond)
	}
	if math.Abs(rate.PPM-1000) > 1e-3 {
		t.Errorf("Expected +1000 ppm, got %f", rate.PPM)
	}
	if rate.Jitter > 1e-6 {
		t.Errorf("Expected no jitter on a perfect line, got %f", rate.Jitter)
	}
	if rate.Samples != 10 || rate.Span != 9 {
		t.Errorf("Expected 10 samples over 9s, got %d over %f", rate.Samples, rate.Span)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestRunReportsReadErrors(t *testing.T) {
	if err := New().Run(context.Background(), failingReader{}); err == nil {
		t.Errorf("Expected the read error to surface")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().Run(ctx, failingReader{}); err != nil {
		t.Errorf("Expected a cancelled run to return nil, got %v", err)
	}
}

func TestEstimateRateErrors(t *testing.T) {
	if _, err := EstimateRate(nil, 1000); err != ErrTooFewSamples {
		t.Errorf("Expected ErrTooFewSamples, got %v", err)
	}
	same := []Sample{{Host: epoch}, {Host: epoch, Ticks: 1}, {Host: epoch, Ticks: 2}}
	if _, err := EstimateRate(same, 1000); err != ErrTooFewSamples {
		t.Errorf("Expected ErrTooFewSamples for zero span, got %v", err)
	}
}

func TestEstimateRateJitter(t *testing.T) {
	var samples []Sample
	for i := 0; i < 20; i++ {
		ticks := uint64(i * 1000)
		if i%2 == 1 {
			ticks += 2
		}
		samples = append(samples, Sample{Host: epoch.Add(time.Duration(i) * time.Second), Ticks: ticks})
	}

	rate, err := EstimateRate(samples, 1000)
	if err != nil {
		t.Fatalf("EstimateRate failed: %v", err)
	}
	if math.Abs(rate.TicksPerSecond-1000) > 0.1 {
		t.Errorf("Expected about 1000 ticks/s, got %f", rate.TicksPerSecond)
	}
	if rate.Jitter < 0.5 || rate.Jitter > 1.5 {
		t.Errorf("Expected about one tick of jitter, got %f", rate.Jitter)
	}
}
