package monitor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrTooFewSamples = errors.New("need at least three samples spanning some time")

// Rate is the firmware tick rate as measured against the host clock
type Rate struct {
	// TicksPerSecond is the fitted slope of ticks over host seconds
	TicksPerSecond float64
	// PPM is the deviation from the nominal rate in parts per million
	PPM float64
	// Jitter is the standard deviation of the fit residuals, in ticks.
	// It is dominated by USB/UART latency on the host side.
	Jitter float64
	// Span is the host time the samples cover, in seconds
	Span    float64
	Samples int
}

func (r Rate) String() string {
	return fmt.Sprintf("%.3f ticks/s (%+.1f ppm, jitter %.2f ticks over %.1fs, %d samples)",
		r.TicksPerSecond, r.PPM, r.Jitter, r.Span, r.Samples)
}

// EstimateRate fits ticks against host time by least squares
func EstimateRate(samples []Sample, nominal uint32) (Rate, error) {
	if len(samples) < 3 || nominal == 0 {
		return Rate{}, ErrTooFewSamples
	}

	t0 := samples[0].Host
	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = s.Host.Sub(t0).Seconds()
		y[i] = float64(s.Ticks - samples[0].Ticks)
	}
	span := x[len(x)-1] - x[0]
	if span <= 0 {
		return Rate{}, ErrTooFewSamples
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	residuals := make([]float64, len(samples))
	for i := range x {
		residuals[i] = y[i] - (alpha + beta*x[i])
	}
	jitter := stat.StdDev(residuals, nil)
	if math.IsNaN(jitter) {
		jitter = 0
	}

	return Rate{
		TicksPerSecond: beta,
		PPM:            (beta/float64(nominal) - 1) * 1e6,
		Jitter:         jitter,
		Span:           span,
		Samples:        len(samples),
	}, nil
}
