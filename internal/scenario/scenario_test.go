package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aurelienhbts/leoptim/internal/fitness"
	"github.com/aurelienhbts/leoptim/internal/genetic"
	"github.com/aurelienhbts/leoptim/internal/orbit"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing scenario file: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	// A minimal file: everything not mentioned must come from defaults.
	path := writeScenario(t, `
[constellation]
planes = 4
satellites = 32
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Planes != 4 || s.Satellites != 32 {
		t.Errorf("explicit fields lost: planes=%d satellites=%d", s.Planes, s.Satellites)
	}
	if s.Mode != "fixed" {
		t.Errorf("default mode = %q, want fixed", s.Mode)
	}
	if s.AltitudeKm != 800 {
		t.Errorf("default altitude = %.1f, want 800", s.AltitudeKm)
	}
	if s.Coarse.TimeSamples != 20 || s.Fine.TimeSamples != 120 {
		t.Errorf("default resolutions = %d/%d, want 20/120", s.Coarse.TimeSamples, s.Fine.TimeSamples)
	}
}

func TestLoadFullScenario(t *testing.T) {
	path := writeScenario(t, `
[constellation]
planes = 6
satellites = 48
phasing = 2.0
inclination_deg = 53.0
altitude_km = 550.0
elevation_mask_deg = 25.0
required_count = 2

[search]
mode = "variable"
popsize = 30
generations = 40
mutation_prob = 0.25
max_satellites = 300
seed = 42

[fitness.variable]
coverage_target_pct = 98.0
shortfall_weight = 3.0
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Mode != "variable" || s.Seed != 42 || s.RequiredCount != 2 {
		t.Errorf("fields lost: mode=%q seed=%d required=%d", s.Mode, s.Seed, s.RequiredCount)
	}

	wantA := orbit.EarthRadius + 550e3
	if s.SemiMajorAxis() != wantA {
		t.Errorf("SemiMajorAxis = %.0f, want %.0f", s.SemiMajorAxis(), wantA)
	}

	fc := s.FitnessConfig()
	if fc.Mode != fitness.ModeVariableCount {
		t.Errorf("fitness mode = %v, want variable", fc.Mode)
	}
	if fc.CoverageTarget != 98.0 || fc.ShortfallWeight != 3.0 {
		t.Errorf("variable terms lost: target=%.1f weight=%.1f", fc.CoverageTarget, fc.ShortfallWeight)
	}
	// Fields the file omitted keep their defaults.
	if fc.CountRampLow != 60 || fc.CountRampHigh != 240 {
		t.Errorf("ramp defaults lost: [%d, %d]", fc.CountRampLow, fc.CountRampHigh)
	}
}

func TestLoadEngineConfigValidates(t *testing.T) {
	path := writeScenario(t, `
[constellation]
planes = 3
satellites = 9
inclination_deg = 45.0

[search]
popsize = 10
generations = 5
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := s.EngineConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("engine config from valid scenario rejected: %v", err)
	}
	if cfg.Params.InclinationDeg != 45.0 {
		t.Errorf("inclination = %.1f, want 45", cfg.Params.InclinationDeg)
	}
	if cfg.Coarse.MinElevationDeg != s.ElevationMaskDeg {
		t.Errorf("elevation mask not carried into coarse options")
	}
}

func TestLoadReportsEveryBadField(t *testing.T) {
	path := writeScenario(t, `
[constellation]
planes = 0
satellites = -3
altitude_km = -100.0

[search]
mode = "annealing"
popsize = 1
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load accepted an invalid scenario")
	}
	for _, field := range []string{"planes", "satellites", "altitude_km", "mode", "popsize"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("Load succeeded on a missing file")
	}
}

func TestStoreLatest(t *testing.T) {
	st := NewStore()
	if st.Latest() != nil {
		t.Fatal("empty store returned a result")
	}

	r := &genetic.Result{RunID: "test-run", CoveragePct: 97.5}
	st.SetLatest(r)

	got := st.Latest()
	if got == nil || got.RunID != "test-run" {
		t.Errorf("Latest = %+v, want the stored result", got)
	}
}
