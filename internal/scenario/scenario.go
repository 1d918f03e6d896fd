// Package scenario loads optimization scenario files and holds the latest
// completed search result for the API to serve.
package scenario

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/aurelienhbts/leoptim/internal/coverage"
	"github.com/aurelienhbts/leoptim/internal/fitness"
	"github.com/aurelienhbts/leoptim/internal/genetic"
	"github.com/aurelienhbts/leoptim/internal/orbit"
)

// Resolution is one coverage sampling configuration of a scenario.
type Resolution struct {
	TimeSamples int
	LatStepDeg  float64
	LonStepDeg  float64
}

// Scenario is a fully resolved scenario file: the orbital geometry every
// candidate layout shares, the search tuning, and the scoring coefficients
// of the selected mode.
type Scenario struct {
	// Constellation geometry.
	Planes           int
	Satellites       int // fixed total, or starting total in variable mode
	Phasing          float64
	InclinationDeg   float64
	AltitudeKm       float64
	ElevationMaskDeg float64
	RequiredCount    int

	// Search tuning.
	Mode          string // "fixed" or "variable"
	PopSize       int
	Generations   int
	MutationProb  float64
	MaxSatellites int
	Seed          int64
	Workers       int

	// Fixed-count scoring.
	CoverageFloorPct  float64
	RewardEmptyPlanes bool
	EmptyPlaneBonus   float64

	// Variable-count scoring.
	CoverageTargetPct float64
	ShortfallWeight   float64
	EmptyPlaneCoef    float64
	CountRampLow      int
	CountRampHigh     int
	CountCostLow      float64
	CountCostHigh     float64

	// Evaluation resolutions: coarse drives the search, fine restates the
	// winner.
	Coarse Resolution
	Fine   Resolution
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("constellation.planes", 8)
	v.SetDefault("constellation.satellites", 64)
	v.SetDefault("constellation.phasing", 1.0)
	v.SetDefault("constellation.inclination_deg", 60.0)
	v.SetDefault("constellation.altitude_km", 800.0)
	v.SetDefault("constellation.elevation_mask_deg", 10.0)
	v.SetDefault("constellation.required_count", 1)

	v.SetDefault("search.mode", "fixed")
	v.SetDefault("search.popsize", 40)
	v.SetDefault("search.generations", 50)
	v.SetDefault("search.mutation_prob", 0.3)
	v.SetDefault("search.max_satellites", 400)
	v.SetDefault("search.seed", 0)
	v.SetDefault("search.workers", 0)

	v.SetDefault("fitness.fixed.coverage_floor_pct", 95.0)
	v.SetDefault("fitness.fixed.reward_empty_planes", true)
	v.SetDefault("fitness.fixed.empty_plane_bonus", 0.5)

	v.SetDefault("fitness.variable.coverage_target_pct", 95.0)
	v.SetDefault("fitness.variable.shortfall_weight", 2.0)
	v.SetDefault("fitness.variable.empty_plane_coef", 0.25)
	v.SetDefault("fitness.variable.count_ramp_low", 60)
	v.SetDefault("fitness.variable.count_ramp_high", 240)
	v.SetDefault("fitness.variable.count_cost_low", 0.01)
	v.SetDefault("fitness.variable.count_cost_high", 0.05)

	v.SetDefault("evaluation.coarse.time_samples", 20)
	v.SetDefault("evaluation.coarse.lat_step_deg", 5.0)
	v.SetDefault("evaluation.coarse.lon_step_deg", 5.0)

	v.SetDefault("evaluation.fine.time_samples", 120)
	v.SetDefault("evaluation.fine.lat_step_deg", 1.5)
	v.SetDefault("evaluation.fine.lon_step_deg", 1.5)
}

// Load reads a scenario TOML file, applies defaults for absent keys and
// validates the result. Every invalid field is reported, not just the
// first.
func Load(path string) (Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Scenario{}, fmt.Errorf("scenario: reading %s: %w", path, err)
	}

	s := Scenario{
		Planes:           v.GetInt("constellation.planes"),
		Satellites:       v.GetInt("constellation.satellites"),
		Phasing:          v.GetFloat64("constellation.phasing"),
		InclinationDeg:   v.GetFloat64("constellation.inclination_deg"),
		AltitudeKm:       v.GetFloat64("constellation.altitude_km"),
		ElevationMaskDeg: v.GetFloat64("constellation.elevation_mask_deg"),
		RequiredCount:    v.GetInt("constellation.required_count"),

		Mode:          strings.ToLower(v.GetString("search.mode")),
		PopSize:       v.GetInt("search.popsize"),
		Generations:   v.GetInt("search.generations"),
		MutationProb:  v.GetFloat64("search.mutation_prob"),
		MaxSatellites: v.GetInt("search.max_satellites"),
		Seed:          v.GetInt64("search.seed"),
		Workers:       v.GetInt("search.workers"),

		CoverageFloorPct:  v.GetFloat64("fitness.fixed.coverage_floor_pct"),
		RewardEmptyPlanes: v.GetBool("fitness.fixed.reward_empty_planes"),
		EmptyPlaneBonus:   v.GetFloat64("fitness.fixed.empty_plane_bonus"),

		CoverageTargetPct: v.GetFloat64("fitness.variable.coverage_target_pct"),
		ShortfallWeight:   v.GetFloat64("fitness.variable.shortfall_weight"),
		EmptyPlaneCoef:    v.GetFloat64("fitness.variable.empty_plane_coef"),
		CountRampLow:      v.GetInt("fitness.variable.count_ramp_low"),
		CountRampHigh:     v.GetInt("fitness.variable.count_ramp_high"),
		CountCostLow:      v.GetFloat64("fitness.variable.count_cost_low"),
		CountCostHigh:     v.GetFloat64("fitness.variable.count_cost_high"),

		Coarse: Resolution{
			TimeSamples: v.GetInt("evaluation.coarse.time_samples"),
			LatStepDeg:  v.GetFloat64("evaluation.coarse.lat_step_deg"),
			LonStepDeg:  v.GetFloat64("evaluation.coarse.lon_step_deg"),
		},
		Fine: Resolution{
			TimeSamples: v.GetInt("evaluation.fine.time_samples"),
			LatStepDeg:  v.GetFloat64("evaluation.fine.lat_step_deg"),
			LonStepDeg:  v.GetFloat64("evaluation.fine.lon_step_deg"),
		},
	}

	if err := s.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Validate collects every field error into one message so a bad file is
// fixed in one edit, not one run per field.
func (s Scenario) Validate() error {
	var problems []string
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if s.Planes < 1 {
		bad("constellation.planes = %d, need at least 1", s.Planes)
	}
	if s.Satellites < 1 {
		bad("constellation.satellites = %d, need at least 1", s.Satellites)
	}
	if s.AltitudeKm <= 0 {
		bad("constellation.altitude_km = %.1f, must be positive", s.AltitudeKm)
	}
	if s.InclinationDeg < 0 || s.InclinationDeg > 180 {
		bad("constellation.inclination_deg = %.1f outside [0, 180]", s.InclinationDeg)
	}
	if s.ElevationMaskDeg < 0 || s.ElevationMaskDeg >= 90 {
		bad("constellation.elevation_mask_deg = %.1f outside [0, 90)", s.ElevationMaskDeg)
	}
	if s.RequiredCount < 1 {
		bad("constellation.required_count = %d, need at least 1", s.RequiredCount)
	}
	if s.Mode != "fixed" && s.Mode != "variable" {
		bad("search.mode = %q, want \"fixed\" or \"variable\"", s.Mode)
	}
	if s.PopSize < 2 {
		bad("search.popsize = %d, need at least 2", s.PopSize)
	}
	if s.Generations < 1 {
		bad("search.generations = %d, need at least 1", s.Generations)
	}
	if s.MutationProb < 0 || s.MutationProb > 1 {
		bad("search.mutation_prob = %.3f outside [0, 1]", s.MutationProb)
	}
	if s.Mode == "variable" && s.MaxSatellites < s.Satellites {
		bad("search.max_satellites = %d below starting count %d", s.MaxSatellites, s.Satellites)
	}
	if s.Coarse.TimeSamples < 1 || s.Coarse.LatStepDeg <= 0 || s.Coarse.LonStepDeg <= 0 {
		bad("evaluation.coarse resolution must be positive")
	}
	if s.Fine.TimeSamples < 1 || s.Fine.LatStepDeg <= 0 || s.Fine.LonStepDeg <= 0 {
		bad("evaluation.fine resolution must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid scenario: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SemiMajorAxis returns the orbit radius in meters for the scenario's
// altitude over the spherical Earth.
func (s Scenario) SemiMajorAxis() float64 {
	return orbit.EarthRadius + s.AltitudeKm*1000
}

// FitnessConfig returns the scoring configuration for the scenario's mode.
func (s Scenario) FitnessConfig() fitness.Config {
	if s.Mode == "variable" {
		return fitness.Config{
			Mode:            fitness.ModeVariableCount,
			CoverageTarget:  s.CoverageTargetPct,
			ShortfallWeight: s.ShortfallWeight,
			EmptyPlaneCoef:  s.EmptyPlaneCoef,
			CountRampLow:    s.CountRampLow,
			CountRampHigh:   s.CountRampHigh,
			CountCostLow:    s.CountCostLow,
			CountCostHigh:   s.CountCostHigh,
		}
	}
	return fitness.Config{
		Mode:              fitness.ModeFixedCount,
		CoverageFloor:     s.CoverageFloorPct,
		RewardEmptyPlanes: s.RewardEmptyPlanes,
		EmptyPlaneBonus:   s.EmptyPlaneBonus,
	}
}

func (s Scenario) options(r Resolution) coverage.Options {
	return coverage.Options{
		MinElevationDeg: s.ElevationMaskDeg,
		RequiredCount:   s.RequiredCount,
		TimeSamples:     r.TimeSamples,
		LatStepDeg:      r.LatStepDeg,
		LonStepDeg:      r.LonStepDeg,
		Workers:         s.Workers,
	}
}

// EngineConfig assembles the genetic engine configuration the scenario
// describes.
func (s Scenario) EngineConfig() genetic.Config {
	return genetic.Config{
		Planes:        s.Planes,
		Satellites:    s.Satellites,
		PopSize:       s.PopSize,
		Generations:   s.Generations,
		MutationProb:  s.MutationProb,
		MaxSatellites: s.MaxSatellites,
		Fitness:       s.FitnessConfig(),
		Params: coverage.Params{
			PhasingFactor:  s.Phasing,
			InclinationDeg: s.InclinationDeg,
			SemiMajorAxis:  s.SemiMajorAxis(),
		},
		Coarse:  s.options(s.Coarse),
		Fine:    s.options(s.Fine),
		Workers: s.Workers,
		Seed:    s.Seed,
	}
}
