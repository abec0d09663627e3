package focus

// Weights blend the behavioral sub-scores into the final focus score.
type Weights struct {
	Head     float64
	Gaze     float64
	Presence float64
}

// Config holds all tunable parameters for focus scoring
type Config struct {
	// HeadDownThreshold is the minimum nose-to-shoulder vertical distance;
	// below it the head counts as lowered.
	HeadDownThreshold float64

	// Looking-away tests (logical OR)
	NoseOffsetThreshold float64 // nose horizontal drift from shoulder center
	EarVisDiffThreshold float64 // left/right ear visibility asymmetry
	EyeTiltThreshold    float64 // left/right eye vertical difference

	// ShoulderTiltThreshold flags slouching; it charges a partial head-down
	// penalty per frame.
	ShoulderTiltThreshold float64
	ShoulderTiltPenalty   float64

	// Presence test: nose plus at least one eye must be visible.
	NoseVisThreshold float64
	EyeVisThreshold  float64

	// Weights for the once-per-second blend.
	Weights Weights

	// MissGraceCycles is how many consecutive low-presence compute cycles
	// are absorbed before presence flips to false.
	MissGraceCycles int

	// SilentCycleDecay is subtracted from the score for a compute cycle
	// that saw no frames at all.
	SilentCycleDecay int

	// HistoryLength caps the retained per-second score history (~5 min).
	HistoryLength int

	// WireHistory is how many trailing samples go out on the wire.
	WireHistory int
}

// DefaultConfig returns the scoring parameters of the observed deployments
func DefaultConfig() Config {
	return Config{
		HeadDownThreshold: 0.15,

		NoseOffsetThreshold: 0.08,
		EarVisDiffThreshold: 0.2,
		EyeTiltThreshold:    0.03,

		ShoulderTiltThreshold: 0.04,
		ShoulderTiltPenalty:   0.3,

		NoseVisThreshold: 0.5,
		EyeVisThreshold:  0.3,

		Weights: Weights{
			Head:     0.4,
			Gaze:     0.4,
			Presence: 0.2,
		},

		MissGraceCycles:  3,
		SilentCycleDecay: 20,
		HistoryLength:    300,
		WireHistory:      30,
	}
}
