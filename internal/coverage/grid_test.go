package coverage

import (
	"math"
	"testing"
)

// TestNewGridBounds checks inclusive latitude ends and the half-open
// longitude ring.
func TestNewGridBounds(t *testing.T) {
	g := NewGrid(-30, 30, 5, 10)

	if n := len(g.Lats); n != 13 {
		t.Errorf("got %d latitude rows, want 13", n)
	}
	if g.Lats[0] != -30 || math.Abs(g.Lats[len(g.Lats)-1]-30) > 1e-9 {
		t.Errorf("latitude span [%.6f, %.6f], want [-30, 30]", g.Lats[0], g.Lats[len(g.Lats)-1])
	}

	if n := len(g.Lons); n != 36 {
		t.Errorf("got %d longitude columns, want 36", n)
	}
	if g.Lons[0] != -180 {
		t.Errorf("first longitude = %.6f, want -180", g.Lons[0])
	}
	if last := g.Lons[len(g.Lons)-1]; last >= 180 {
		t.Errorf("last longitude = %.6f, want < 180 (180 aliases -180)", last)
	}

	if g.Points() != 13*36 {
		t.Errorf("Points = %d, want %d", g.Points(), 13*36)
	}
}

// TestNewGridSingleRow covers the degenerate equatorial band.
func TestNewGridSingleRow(t *testing.T) {
	g := NewGrid(0, 0, 2, 90)
	if g.Rows() != 1 {
		t.Errorf("got %d rows, want 1", g.Rows())
	}
	if len(g.Lons) != 4 {
		t.Errorf("got %d columns, want 4", len(g.Lons))
	}
}

// TestBandGridReach verifies the latitude band follows the inclination,
// with retrograde orbits mirrored and the poles as the hard limit.
func TestBandGridReach(t *testing.T) {
	tests := []struct {
		inclinationDeg float64
		wantReach      float64
	}{
		{30, 30},
		{55, 55},
		{90, 90},
		{98, 82},  // sun-synchronous style retrograde
		{150, 30}, // mirror of 30
	}

	for _, tt := range tests {
		g := BandGrid(tt.inclinationDeg, 1, 10)
		gotMin, gotMax := g.Lats[0], g.Lats[len(g.Lats)-1]
		if math.Abs(gotMin+tt.wantReach) > 1e-9 || math.Abs(gotMax-tt.wantReach) > 1e-9 {
			t.Errorf("inclination %.0f: band [%.3f, %.3f], want [%.0f, %.0f]",
				tt.inclinationDeg, gotMin, gotMax, -tt.wantReach, tt.wantReach)
		}
	}
}

// TestGridTrigCache spot-checks the precomputed trigonometry against direct
// evaluation.
func TestGridTrigCache(t *testing.T) {
	g := NewGrid(-60, 60, 15, 30)
	for i, lat := range g.Lats {
		rad := lat * math.Pi / 180.0
		if math.Abs(g.cosLat[i]-math.Cos(rad)) > 1e-15 || math.Abs(g.sinLat[i]-math.Sin(rad)) > 1e-15 {
			t.Errorf("row %d (lat %.1f): cached trig deviates", i, lat)
		}
	}
	for j, lon := range g.Lons {
		rad := lon * math.Pi / 180.0
		if math.Abs(g.cosLon[j]-math.Cos(rad)) > 1e-15 || math.Abs(g.sinLon[j]-math.Sin(rad)) > 1e-15 {
			t.Errorf("column %d (lon %.1f): cached trig deviates", j, lon)
		}
	}
}
