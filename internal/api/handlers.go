package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/aurelienhbts/leoptim/internal/constellation"
	"github.com/aurelienhbts/leoptim/internal/coverage"
	"github.com/aurelienhbts/leoptim/internal/orbit"
	"github.com/aurelienhbts/leoptim/internal/scenario"
)

// maxLayoutSatellites caps request size: a single evaluation over tens of
// thousands of satellites would let one caller monopolize the server.
const maxLayoutSatellites = 10000

type handlers struct {
	store  *scenario.Store
	logger *slog.Logger
}

// layoutRequest is the shared body of the evaluation endpoints: a layout
// plus the orbital geometry and sampling options to score it under.
type layoutRequest struct {
	Layout          []int   `json:"layout"`
	Phasing         float64 `json:"phasing"`
	InclinationDeg  float64 `json:"inclination_deg"`
	SemiMajorAxisM  float64 `json:"semi_major_axis_m"`
	MinElevationDeg float64 `json:"min_elevation_deg"`
	RequiredCount   int     `json:"required_count,omitempty"`
	TimeSamples     int     `json:"time_samples,omitempty"`
	LatStepDeg      float64 `json:"lat_step_deg,omitempty"`
	LonStepDeg      float64 `json:"lon_step_deg,omitempty"`

	// TimeSec is only read by the constellation snapshot endpoint.
	TimeSec float64 `json:"t_sec,omitempty"`
}

func (req *layoutRequest) validate() error {
	layout := constellation.Layout(req.Layout)
	if err := layout.Validate(); err != nil {
		return err
	}
	if n := layout.Total(); n > maxLayoutSatellites {
		return fmt.Errorf("layout holds %d satellites, limit is %d", n, maxLayoutSatellites)
	}
	if req.SemiMajorAxisM <= orbit.EarthRadius {
		return fmt.Errorf("semi_major_axis_m = %.0f must exceed Earth's radius %.0f", req.SemiMajorAxisM, orbit.EarthRadius)
	}
	if req.InclinationDeg < 0 || req.InclinationDeg > 180 {
		return fmt.Errorf("inclination_deg = %.1f outside [0, 180]", req.InclinationDeg)
	}
	if req.MinElevationDeg < 0 || req.MinElevationDeg >= 90 {
		return fmt.Errorf("min_elevation_deg = %.1f outside [0, 90)", req.MinElevationDeg)
	}
	return nil
}

func (req *layoutRequest) params() coverage.Params {
	return coverage.Params{
		PhasingFactor:  req.Phasing,
		InclinationDeg: req.InclinationDeg,
		SemiMajorAxis:  req.SemiMajorAxisM,
	}
}

// options starts from the default resolution and overrides only the fields
// the request set, so absent fields never become zero steps or zero
// samples.
func (req *layoutRequest) options() coverage.Options {
	o := coverage.DefaultOptions()
	o.MinElevationDeg = req.MinElevationDeg
	if req.RequiredCount > 0 {
		o.RequiredCount = req.RequiredCount
	}
	if req.TimeSamples > 0 {
		o.TimeSamples = req.TimeSamples
	}
	if req.LatStepDeg > 0 {
		o.LatStepDeg = req.LatStepDeg
	}
	if req.LonStepDeg > 0 {
		o.LonStepDeg = req.LonStepDeg
	}
	return o
}

func decodeLayoutRequest(w http.ResponseWriter, r *http.Request) (*layoutRequest, bool) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

// evaluate scores one layout: mean coverage over a full orbital period.
func (h *handlers) evaluate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLayoutRequest(w, r)
	if !ok {
		return
	}

	pct, sats, err := coverage.EvaluateLayout(constellation.Layout(req.Layout), req.params(), req.options())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"coverage_pct": pct,
		"satellites":   sats,
	})
}

type satelliteSnapshot struct {
	Plane   int     `json:"plane"`
	ECEFXm  float64 `json:"ecef_x_m"`
	ECEFYm  float64 `json:"ecef_y_m"`
	ECEFZm  float64 `json:"ecef_z_m"`
	LatDeg  float64 `json:"lat_deg"`
	LonDeg  float64 `json:"lon_deg"`
	RAANDeg float64 `json:"raan_deg"`
}

// constellation returns per-satellite Earth-fixed positions and subpoints
// at one instant, for external renderers.
func (h *handlers) constellation(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLayoutRequest(w, r)
	if !ok {
		return
	}

	layout := constellation.Layout(req.Layout)
	sats := constellation.Build(layout, req.Phasing, req.InclinationDeg, req.SemiMajorAxisM)

	snaps := make([]satelliteSnapshot, 0, len(sats))
	plane, remaining := 0, 0
	for _, sat := range sats {
		for remaining == 0 {
			remaining = layout[plane]
			plane++
		}
		remaining--

		pos := orbit.ECEFPosition(sat, req.TimeSec)
		lat, lon, err := orbit.LatLonFromECEF(pos)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		snaps = append(snaps, satelliteSnapshot{
			Plane:   plane,
			ECEFXm:  pos.X,
			ECEFYm:  pos.Y,
			ECEFZm:  pos.Z,
			LatDeg:  lat,
			LonDeg:  lon,
			RAANDeg: sat.RAAN * 180 / math.Pi,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"t_sec":      req.TimeSec,
		"satellites": snaps,
	})
}

// coverageSeries returns instantaneous coverage sampled across one orbital
// period, the data behind coverage oscillation plots.
func (h *handlers) coverageSeries(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLayoutRequest(w, r)
	if !ok {
		return
	}

	layout := constellation.Layout(req.Layout)
	sats := constellation.Build(layout, req.Phasing, req.InclinationDeg, req.SemiMajorAxisM)
	if len(sats) == 0 {
		writeError(w, http.StatusUnprocessableEntity, coverage.ErrEmptyConstellation.Error())
		return
	}

	opts := req.options()
	grid := coverage.BandGrid(req.InclinationDeg, opts.LatStepDeg, opts.LonStepDeg)
	samples, err := coverage.Series(sats, grid, opts)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period_sec": sats[0].Period(),
		"satellites": len(sats),
		"samples":    samples,
	})
}

// searchLatest serves the most recent completed optimization run.
func (h *handlers) searchLatest(w http.ResponseWriter, r *http.Request) {
	result := h.store.Latest()
	if result == nil {
		writeError(w, http.StatusNotFound, "no completed search")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
