package core

import (
	"context"
	"math"
	"time"

	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// Closed-form impedance constants. Lengths are mils.
const (
	microstripK = 60.0
	microstripC = 5.98

	// CopperThickness is the trace thickness assumed by the stripline
	// formula (1 oz copper).
	CopperThickness = 1.4

	MicrostripMinOhms = 20.0
	MicrostripMaxOhms = 120.0
	StriplineMinOhms  = 25.0
	StriplineMaxOhms  = 120.0

	// Used when the stackup has no layer for a track.
	fallbackDielectricHeight   = 10.0
	fallbackDielectricConstant = 4.5

	minDimension = 1e-6
)

// Transmission line kinds.
const (
	LineMicrostrip = "microstrip"
	LineStripline  = "stripline"
)

// MicrostripImpedance estimates the characteristic impedance (ohms) of an
// outer-layer trace of width w over a dielectric of height h.
func MicrostripImpedance(w, h, er float64) float64 {
	w, h, er = floorDimension(w), floorDimension(h), floorPermittivity(er)
	z := microstripK / math.Sqrt(er) * math.Log(1+microstripC*h/w)
	return clampOhms(z, MicrostripMinOhms, MicrostripMaxOhms)
}

// StriplineImpedance estimates the characteristic impedance (ohms) of an
// inner-layer trace using the IPC-2141 form, falling back to a simpler
// empirical form where that goes non-positive.
func StriplineImpedance(w, h, er float64) float64 {
	w, h, er = floorDimension(w), floorDimension(h), floorPermittivity(er)
	z := 60 / math.Sqrt(er) * math.Log(1.9*(2*h/(0.8*w+CopperThickness)))
	if !(z > 0) {
		z = 60 * math.Log(4*h/w) / math.Sqrt(er)
	}
	return clampOhms(z, StriplineMinOhms, StriplineMaxOhms)
}

// EffectiveDielectric is the permittivity a signal sees on a line: the
// Hammerstad mix of board and air for microstrip, the board itself for
// stripline.
func EffectiveDielectric(kind string, w, h, er float64) float64 {
	w, h, er = floorDimension(w), floorDimension(h), floorPermittivity(er)
	if kind != LineMicrostrip {
		return er
	}
	return (er+1)/2 + (er-1)/2*math.Pow(1+12*h/w, -0.5)
}

func floorDimension(v float64) float64 {
	if !(v > minDimension) || math.IsInf(v, 0) {
		return minDimension
	}
	return v
}

func floorPermittivity(er float64) float64 {
	if !(er >= 1) || math.IsInf(er, 0) {
		return 1
	}
	return er
}

func clampOhms(z, lo, hi float64) float64 {
	switch {
	case math.IsNaN(z), z < lo:
		return lo
	case z > hi:
		return hi
	default:
		return z
	}
}

// ImpedanceSegment is the impedance of one track on a path.
type ImpedanceSegment struct {
	Index               int     `json:"index"`
	Type                string  `json:"type"`
	Layer               int     `json:"layer"`
	Width               float64 `json:"width"`
	LengthMils          float64 `json:"length"`
	LengthMM            float64 `json:"length_mm"`
	DielectricHeight    float64 `json:"dielectric_height"`
	DielectricConstant  float64 `json:"dielectric_constant"`
	EffectiveDielectric float64 `json:"effective_dielectric_constant"`
	ImpedanceOhms       float64 `json:"impedance"`
}

// ImpedanceResult summarises the impedance along a traced path. Averages
// are weighted by segment length.
type ImpedanceResult struct {
	From               model.PadRef       `json:"from"`
	To                 model.PadRef       `json:"to"`
	ImpedanceOhms      float64            `json:"impedance_ohms"`
	TraceWidth         float64            `json:"trace_width"`
	DielectricConstant float64            `json:"dielectric_constant"`
	MinImpedance       float64            `json:"min_impedance"`
	MaxImpedance       float64            `json:"max_impedance"`
	Segments           []ImpedanceSegment `json:"segments"`
	TotalLengthMM      float64            `json:"total_length_mm"`
	TotalLengthMils    float64            `json:"total_length_mils"`
}

// TraceImpedance computes the impedance profile of the path between two
// terminals. It reports false when there is no path or the path has no
// tracks.
func (s *TraceService) TraceImpedance(ctx context.Context, a, b model.PadRef) (*ImpedanceResult, bool) {
	res, err := s.Impedance(ctx, a, b)
	if err != nil {
		return nil, false
	}
	return res, true
}

// Impedance is TraceImpedance with the failure reason. Besides the path
// errors it returns ErrNoTrackSegments.
func (s *TraceService) Impedance(ctx context.Context, a, b model.PadRef) (*ImpedanceResult, error) {
	snap, err := s.current()
	if err != nil {
		s.observe("trace_impedance", err, 0)
		return nil, err
	}
	r, err := s.queryOn(ctx, snap, "trace_path", a, b)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := s.impedanceOf(snap.board, r, a, b)
	if res == nil {
		s.observe("trace_impedance", ErrNoTrackSegments, time.Since(start))
		s.log.Debug(ctx, "path has no tracks for impedance",
			logging.String("from", a.String()),
			logging.String("to", b.String()),
		)
		return nil, ErrNoTrackSegments
	}
	s.observe("trace_impedance", nil, time.Since(start))
	return res, nil
}

func (s *TraceService) impedanceOf(b *Board, r *route, from, to model.PadRef) *ImpedanceResult {
	res := &ImpedanceResult{
		From:            from,
		To:              to,
		TotalLengthMils: r.lengthMils,
		TotalLengthMM:   r.lengthMils * model.MilsToMM,
		MinImpedance:    math.Inf(1),
		MaxImpedance:    math.Inf(-1),
	}

	var weight, zSum, wSum, erSum float64
	for i, idx := range r.orientedNodes(from) {
		t, ok := b.objects[idx].(*model.Track)
		if !ok {
			continue
		}
		seg := s.segmentImpedance(t)
		seg.Index = i
		res.Segments = append(res.Segments, seg)

		l := seg.LengthMils
		weight += l
		zSum += seg.ImpedanceOhms * l
		wSum += seg.Width * l
		erSum += seg.EffectiveDielectric * l
		res.MinImpedance = math.Min(res.MinImpedance, seg.ImpedanceOhms)
		res.MaxImpedance = math.Max(res.MaxImpedance, seg.ImpedanceOhms)
	}
	if len(res.Segments) == 0 {
		return nil
	}
	res.ImpedanceOhms = zSum / weight
	res.TraceWidth = wSum / weight
	res.DielectricConstant = erSum / weight
	return res
}

func (s *TraceService) segmentImpedance(t *model.Track) ImpedanceSegment {
	w := t.Width
	if !(w > 0) {
		w = s.cfg.DefaultTrackWidth
	}
	h, er := fallbackDielectricHeight, fallbackDielectricConstant
	if d, ok := s.stackup.Dielectric(t.Layer); ok {
		if d.Height > 0 {
			h = d.Height
		}
		if d.DielectricConstant > 0 {
			er = d.DielectricConstant
		}
	}

	seg := ImpedanceSegment{
		Layer:              t.Layer,
		Width:              w,
		LengthMils:         t.LengthMils,
		LengthMM:           t.LengthMils * model.MilsToMM,
		DielectricHeight:   h,
		DielectricConstant: er,
	}
	if s.stackup.IsOuter(t.Layer) {
		seg.Type = LineMicrostrip
		seg.ImpedanceOhms = MicrostripImpedance(w, h, er)
	} else {
		seg.Type = LineStripline
		seg.ImpedanceOhms = StriplineImpedance(w, h, er)
	}
	seg.EffectiveDielectric = EffectiveDielectric(seg.Type, w, h, er)
	return seg
}
