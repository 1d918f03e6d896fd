package coverage

import "runtime"

// Options control the sampling resolution and visibility mask of a coverage
// evaluation. The zero value is not useful; start from DefaultOptions,
// CoarseOptions or FineOptions and override fields as needed.
type Options struct {
	MinElevationDeg float64 // visibility mask above the horizon, degrees
	RequiredCount   int     // satellites that must be visible at once
	TimeSamples     int     // instants sampled over one orbital period
	LatStepDeg      float64 // latitude grid step, degrees
	LonStepDeg      float64 // longitude grid step, degrees
	Workers         int     // goroutines splitting the grid rows
}

// DefaultOptions is the reference resolution: 100 instants over one period
// on a 2 degree grid, single-satellite visibility.
func DefaultOptions() Options {
	return Options{
		MinElevationDeg: 10,
		RequiredCount:   1,
		TimeSamples:     100,
		LatStepDeg:      2,
		LonStepDeg:      2,
		Workers:         runtime.NumCPU(),
	}
}

// CoarseOptions trades accuracy for speed and is meant for the inner loop
// of a layout search, where thousands of layouts are scored per run.
func CoarseOptions() Options {
	o := DefaultOptions()
	o.TimeSamples = 20
	o.LatStepDeg = 5
	o.LonStepDeg = 5
	return o
}

// FineOptions is the high-resolution configuration used to restate a search
// winner's coverage on a denser grid than the search itself sampled.
func FineOptions() Options {
	o := DefaultOptions()
	o.TimeSamples = 120
	o.LatStepDeg = 1.5
	o.LonStepDeg = 1.5
	return o
}

// normalized fills unset fields with defaults so a partially specified
// Options never divides by zero or spawns zero workers.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.RequiredCount < 1 {
		o.RequiredCount = d.RequiredCount
	}
	if o.TimeSamples < 1 {
		o.TimeSamples = d.TimeSamples
	}
	if o.LatStepDeg <= 0 {
		o.LatStepDeg = d.LatStepDeg
	}
	if o.LonStepDeg <= 0 {
		o.LonStepDeg = d.LonStepDeg
	}
	if o.Workers < 1 {
		o.Workers = d.Workers
	}
	return o
}
