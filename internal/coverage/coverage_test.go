package coverage

import (
	"math"
	"testing"

	"github.com/gonum/floats"
	"github.com/soypat/geometry/md3"

	"github.com/aurelienhbts/leoptim/internal/constellation"
	"github.com/aurelienhbts/leoptim/internal/orbit"
)

// satAbove places a satellite directly over the given subpoint at the given
// altitude, in Earth-fixed coordinates.
func satAbove(latDeg, lonDeg, altM float64) md3.Vec {
	sinLat, cosLat := math.Sincos(latDeg * math.Pi / 180.0)
	sinLon, cosLon := math.Sincos(lonDeg * math.Pi / 180.0)
	r := orbit.EarthRadius + altM
	return md3.Vec{X: r * cosLat * cosLon, Y: r * cosLat * sinLon, Z: r * sinLat}
}

// elevationDeg is the slow reference form of the visibility geometry: the
// angle of the satellite above the ground point's tangent plane, from the
// line-of-sight vector.
func elevationDeg(satECEF md3.Vec, latDeg, lonDeg float64) float64 {
	sinLat, cosLat := math.Sincos(latDeg * math.Pi / 180.0)
	sinLon, cosLon := math.Sincos(lonDeg * math.Pi / 180.0)
	g := md3.Vec{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	toSat := md3.Sub(satECEF, md3.Scale(orbit.EarthRadius, g))
	sinEl := md3.Dot(toSat, g) / md3.Norm(toSat)
	return math.Asin(sinEl) * 180.0 / math.Pi
}

// TestVisibleMatchesElevationOracle validates the algebraic threshold test
// against the explicit line-of-sight elevation for a sweep of subpoint
// offsets and masks. The two formulations are the same condition, so the
// booleans must agree everywhere away from the exact footprint edge.
func TestVisibleMatchesElevationOracle(t *testing.T) {
	points := []struct{ lat, lon float64 }{
		{0, 0}, {0, 5}, {0, 12}, {0, 21}, {0, 33}, {0, 47}, {0, 61},
		{8, 3}, {17, -11}, {-26, 19}, {41, 41}, {-52, -77},
	}
	for _, alt := range []float64{500e3, 800e3, 1400e3} {
		sat := satAbove(0, 0, alt)
		for _, mask := range []float64{0, 5, 10, 30} {
			for _, p := range points {
				got := Visible(sat, p.lat, p.lon, mask)
				want := elevationDeg(sat, p.lat, p.lon) >= mask
				if got != want {
					t.Errorf("alt=%.0fkm mask=%.0f point=(%.0f,%.0f): Visible=%v, elevation oracle=%v (el=%.3f)",
						alt/1000, mask, p.lat, p.lon, got, want, elevationDeg(sat, p.lat, p.lon))
				}
			}
		}
	}
}

// TestVisibleShrinksWithMask checks that raising the elevation mask never
// adds visibility: any point visible at the stricter mask is visible at
// every looser one.
func TestVisibleShrinksWithMask(t *testing.T) {
	masks := []float64{0, 5, 10, 20, 40}
	sat := satAbove(12, -34, 800e3)

	for lat := -60.0; lat <= 60; lat += 4 {
		for lon := -70.0; lon <= 10; lon += 4 {
			visible := make([]bool, len(masks))
			for i, m := range masks {
				visible[i] = Visible(sat, lat, lon, m)
			}
			for i := 1; i < len(masks); i++ {
				if visible[i] && !visible[i-1] {
					t.Fatalf("point (%.0f,%.0f): visible at mask %.0f but not at %.0f",
						lat, lon, masks[i], masks[i-1])
				}
			}
		}
	}
}

// TestVisibilityThresholdMonotone pins the raw threshold: it must rise with
// the mask so the visible set can only shrink.
func TestVisibilityThresholdMonotone(t *testing.T) {
	const rho = orbit.EarthRadius + 800e3
	prev := math.Inf(-1)
	for _, mask := range []float64{0, 5, 10, 20, 45, 80, 90} {
		th := visibilityThreshold(rho, mask)
		if th <= prev {
			t.Errorf("threshold not increasing at mask %.0f: %.3f <= %.3f", mask, th, prev)
		}
		prev = th
	}

	// At mask 90 only the zenith remains: the threshold reaches rho.
	if th := visibilityThreshold(rho, 90); math.Abs(th-rho) > 1e-3 {
		t.Errorf("mask 90 threshold = %.3f, want rho = %.3f", th, rho)
	}
}

// TestInstantaneousMatchesNaive cross-validates the precomputed, parallel,
// short-circuiting counter against a naive per-point loop built on Visible.
func TestInstantaneousMatchesNaive(t *testing.T) {
	sats := constellation.Build(constellation.Layout{3, 0, 2, 1}, 1, 55, orbit.EarthRadius+800e3)
	grid := BandGrid(55, 10, 10)
	opts := Options{MinElevationDeg: 10, TimeSamples: 1, LatStepDeg: 10, LonStepDeg: 10, Workers: 4}

	for _, required := range []int{1, 2} {
		opts.RequiredCount = required
		for _, tc := range []float64{0, 1234.5, 5000} {
			got := Instantaneous(sats, tc, grid, opts)

			covered := 0
			for _, lat := range grid.Lats {
				for _, lon := range grid.Lons {
					seen := 0
					for _, s := range sats {
						if Visible(orbit.ECEFPosition(s, tc), lat, lon, opts.MinElevationDeg) {
							seen++
						}
					}
					if seen >= required {
						covered++
					}
				}
			}
			want := 100 * float64(covered) / float64(grid.Points())

			if math.Abs(got-want) > 1e-12 {
				t.Errorf("required=%d t=%.1f: Instantaneous = %.12f, naive = %.12f", required, tc, got, want)
			}
		}
	}
}

// TestInstantaneousMonotoneInConstellationSize: with a single required
// satellite, growing the constellation can only add covered points —
// every point covered before is still covered by the same satellite.
func TestInstantaneousMonotoneInConstellationSize(t *testing.T) {
	const a = orbit.EarthRadius + 800e3
	base := constellation.Build(constellation.Layout{2, 1, 3}, 1, 50, a)
	grid := BandGrid(50, 5, 5)
	opts := Options{MinElevationDeg: 10, RequiredCount: 1, TimeSamples: 1, Workers: 3}

	extras := []orbit.Satellite{
		orbit.NewSatellite(a, 50*math.Pi/180, 0.8, 2.2),
		orbit.NewSatellite(a, 50*math.Pi/180, 3.9, 0.4),
		orbit.NewSatellite(a, 50*math.Pi/180, 5.1, 4.8),
	}

	for _, tc := range []float64{0, 777.7, 3456} {
		sats := append([]orbit.Satellite(nil), base...)
		prev := Instantaneous(sats, tc, grid, opts)
		for i, extra := range extras {
			sats = append(sats, extra)
			cov := Instantaneous(sats, tc, grid, opts)
			if cov < prev {
				t.Errorf("t=%.1f: coverage dropped from %.6f to %.6f after adding satellite %d",
					tc, prev, cov, i+1)
			}
			prev = cov
		}
	}
}

// TestInstantaneousRequiredCountMonotone: demanding more simultaneous
// satellites can only lower coverage.
func TestInstantaneousRequiredCountMonotone(t *testing.T) {
	sats := constellation.Build(constellation.Uniform(3, 10), 1, 45, orbit.EarthRadius+800e3)
	grid := BandGrid(45, 5, 5)
	opts := CoarseOptions()

	prev := math.Inf(1)
	for required := 1; required <= 4; required++ {
		opts.RequiredCount = required
		cov := Instantaneous(sats, 600, grid, opts)
		if cov > prev {
			t.Errorf("required=%d: coverage %.4f exceeds required=%d coverage %.4f", required, cov, required-1, prev)
		}
		prev = cov
	}
}

// TestInstantaneousEmpty verifies no satellites means no coverage.
func TestInstantaneousEmpty(t *testing.T) {
	grid := BandGrid(55, 5, 5)
	if got := Instantaneous(nil, 0, grid, CoarseOptions()); got != 0 {
		t.Errorf("got %.4f, want 0", got)
	}
}

// TestMeanFullCoverage: three equatorial satellites at geostationary radius
// see the whole +-30 degree band with a zero mask, at every instant.
func TestMeanFullCoverage(t *testing.T) {
	sats := constellation.Build(constellation.Layout{1, 1, 1}, 0, 0, 42164000)
	grid := NewGrid(-30, 30, 5, 5)
	opts := Options{MinElevationDeg: 0, RequiredCount: 1, TimeSamples: 10, Workers: 2}

	mean, err := Mean(sats, grid, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mean != 100 {
		t.Errorf("mean coverage = %.6f, want exactly 100", mean)
	}
}

// TestMeanSingleSatelliteBounds: one LEO satellite always sees its own
// subpoint but never the whole band.
func TestMeanSingleSatelliteBounds(t *testing.T) {
	sats := constellation.Build(constellation.Layout{1}, 0, 55, orbit.EarthRadius+800e3)
	grid := BandGrid(55, 5, 5)
	opts := Options{MinElevationDeg: 10, RequiredCount: 1, TimeSamples: 20, Workers: 4}

	mean, err := Mean(sats, grid, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mean <= 0 || mean >= 20 {
		t.Errorf("mean coverage = %.4f, want small but positive", mean)
	}
}

// TestMeanEmptyConstellation verifies the error contract for layouts with
// no satellites.
func TestMeanEmptyConstellation(t *testing.T) {
	grid := BandGrid(55, 5, 5)
	if _, err := Mean(nil, grid, CoarseOptions()); err != ErrEmptyConstellation {
		t.Errorf("Mean: got err=%v, want ErrEmptyConstellation", err)
	}
	if _, err := Series(nil, grid, CoarseOptions()); err != ErrEmptyConstellation {
		t.Errorf("Series: got err=%v, want ErrEmptyConstellation", err)
	}
}

// TestSeriesSpacing checks sample count and the even spacing over [0, T).
func TestSeriesSpacing(t *testing.T) {
	sats := constellation.Build(constellation.Layout{2, 2}, 1, 30, orbit.EarthRadius+800e3)
	grid := BandGrid(30, 10, 10)
	opts := Options{MinElevationDeg: 10, RequiredCount: 1, TimeSamples: 8, Workers: 2}

	series, err := Series(sats, grid, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 8 {
		t.Fatalf("got %d samples, want 8", len(series))
	}

	period := sats[0].Period()
	for i, s := range series {
		want := period * float64(i) / 8
		if math.Abs(s.Time-want) > 1e-9 {
			t.Errorf("sample %d at t=%.6f, want %.6f", i, s.Time, want)
		}
		if s.CoveragePct < 0 || s.CoveragePct > 100 {
			t.Errorf("sample %d coverage %.4f out of [0, 100]", i, s.CoveragePct)
		}
	}
	if last := series[len(series)-1].Time; last >= period {
		t.Errorf("last sample at t=%.3f, want < period %.3f", last, period)
	}
}

// TestTwoPlaneOscillation reproduces the benchmark scenario: two planes of
// 178 satellites at 30 degrees inclination, 800 km altitude, 10 degree
// mask. Coverage must oscillate strictly between 0 and 100 percent, and
// repeat from one orbital period to the next up to grid discretization:
// after one period the constellation geometry recurs shifted uniformly in
// longitude, which the full longitude ring absorbs.
func TestTwoPlaneOscillation(t *testing.T) {
	sats := constellation.Build(constellation.Layout{178, 178}, 0, 30, orbit.EarthRadius+800e3)
	grid := BandGrid(30, 5, 5)
	opts := Options{MinElevationDeg: 10, RequiredCount: 1, TimeSamples: 24, Workers: 4}

	series, err := Series(sats, grid, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		if s.CoveragePct <= 0 || s.CoveragePct >= 100 {
			t.Fatalf("t=%.1f: coverage %.4f, want strictly inside (0, 100)", s.Time, s.CoveragePct)
		}
		lo = math.Min(lo, s.CoveragePct)
		hi = math.Max(hi, s.CoveragePct)
	}
	if !(hi > lo) {
		t.Errorf("coverage constant at %.4f, want oscillation", lo)
	}

	// Period recurrence within a few grid cells' worth of coverage.
	period := sats[0].Period()
	for _, tc := range []float64{0, period / 3} {
		now := Instantaneous(sats, tc, grid, opts)
		next := Instantaneous(sats, tc+period, grid, opts)
		if !floats.EqualWithinAbs(now, next, 5.0) {
			t.Errorf("coverage at t=%.1f is %.4f but %.4f one period later", tc, now, next)
		}
	}
}

// TestEvaluatorLayoutRoundTrip checks satellite accounting, determinism and
// the empty-layout error through the Evaluator path.
func TestEvaluatorLayoutRoundTrip(t *testing.T) {
	params := Params{PhasingFactor: 1, InclinationDeg: 55, SemiMajorAxis: orbit.EarthRadius + 800e3}
	ev := NewEvaluator(params, CoarseOptions())

	layout := constellation.Layout{5, 0, 7, 3}
	cov1, n1, err := ev.EvaluateLayout(layout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n1 != layout.Total() {
		t.Errorf("satellite count = %d, want %d", n1, layout.Total())
	}
	if cov1 <= 0 || cov1 >= 100 {
		t.Errorf("coverage = %.4f, want inside (0, 100)", cov1)
	}

	cov2, n2, err := ev.EvaluateLayout(layout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cov1 != cov2 || n1 != n2 {
		t.Errorf("evaluation not deterministic: (%.6f, %d) then (%.6f, %d)", cov1, n1, cov2, n2)
	}

	if _, _, err := ev.EvaluateLayout(constellation.Layout{0, 0, 0, 0}); err != ErrEmptyConstellation {
		t.Errorf("all-zero layout: got err=%v, want ErrEmptyConstellation", err)
	}
}

// BenchmarkInstantaneous measures the hot loop on the default grid with a
// mid-sized constellation.
func BenchmarkInstantaneous(b *testing.B) {
	sats := constellation.Build(constellation.Uniform(6, 40), 1, 55, orbit.EarthRadius+800e3)
	grid := BandGrid(55, 2, 2)
	opts := DefaultOptions()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Instantaneous(sats, float64(i%100)*60, grid, opts)
	}
}

// BenchmarkEvaluateLayout measures a full coarse evaluation as the search
// performs per candidate.
func BenchmarkEvaluateLayout(b *testing.B) {
	params := Params{PhasingFactor: 1, InclinationDeg: 55, SemiMajorAxis: orbit.EarthRadius + 800e3}
	ev := NewEvaluator(params, CoarseOptions())
	layout := constellation.Uniform(6, 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := ev.EvaluateLayout(layout); err != nil {
			b.Fatal(err)
		}
	}
}
