package core

// Edge weights (mm) used by the graph strategies. They only steer the
// shortest-path search; reported lengths come from the tracks themselves.
const (
	// DefaultEdgeWeight is used between pads and vias.
	DefaultEdgeWeight = 0.0001
	// PadTrackEdgeWeight is the near-zero weight for a pad touching a track
	// or arc, and the floor for any track-derived weight.
	PadTrackEdgeWeight = 0.00001
)

// EngineConfig holds the empirically tuned constants of the trace engine.
// They were validated against a single reference board and are configuration,
// not physics.
type EngineConfig struct {
	// ConnectTolerance is the endpoint distance (mils) under which two
	// primitives touch.
	ConnectTolerance float64
	// RoundingPrecision is the number of decimal places endpoints are
	// snapped to for exact matching and identity keys.
	RoundingPrecision int
	// ArcSegments is the polyline resolution used for arc shapes.
	ArcSegments int
	// BufferFactor scales ConnectTolerance into the outward buffer applied
	// before shape intersection.
	BufferFactor float64
	// JumperDistance is the maximum distance (mils) between two pads of one
	// component for them to be treated as a jumper across nets.
	JumperDistance float64
	// DefaultTrackWidth (mils) is used for impedance when a track has none.
	DefaultTrackWidth float64
}

// DefaultEngineConfig returns the tuned defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ConnectTolerance:  2.0,
		RoundingPrecision: 2,
		ArcSegments:       32,
		BufferFactor:      0.1,
		JumperDistance:    100,
		DefaultTrackWidth: 10,
	}
}

// normalized replaces unusable values with defaults.
func (c EngineConfig) normalized() EngineConfig {
	def := DefaultEngineConfig()
	if !(c.ConnectTolerance > 0) {
		c.ConnectTolerance = def.ConnectTolerance
	}
	if c.RoundingPrecision < 0 {
		c.RoundingPrecision = def.RoundingPrecision
	}
	if c.ArcSegments <= 0 {
		c.ArcSegments = def.ArcSegments
	}
	if !(c.BufferFactor > 0) {
		c.BufferFactor = def.BufferFactor
	}
	if !(c.JumperDistance > 0) {
		c.JumperDistance = def.JumperDistance
	}
	if !(c.DefaultTrackWidth > 0) {
		c.DefaultTrackWidth = def.DefaultTrackWidth
	}
	return c
}
