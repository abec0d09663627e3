package posture

// Config holds all tunable parameters for posture classification
type Config struct {
	// MinConfidence is the landmark visibility floor; frames whose shoulder
	// landmarks fall below it classify as unknown.
	MinConfidence float64

	// Torso ratio band edges. The band is intentionally asymmetric: the
	// standing cutoff sits above the sitting cutoff, matching the tuning of
	// the observed deployments. Ratios below StandingMaxRatio classify as
	// standing, ratios above SittingMinRatio as sitting, and the remaining
	// dead zone falls back to nose height.
	StandingMaxRatio float64
	SittingMinRatio  float64

	// Nose-height fallback thresholds (normalized image Y).
	NoseStandingMaxY float64
	NoseSittingMinY  float64

	// Hand-raise rule. Some deployments disable it entirely.
	DetectHandRaise bool
	HandRaiseMargin float64 // wrist must be this far above the nose
}

// DefaultConfig returns the recommended classification thresholds
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.5,

		StandingMaxRatio: 0.6,
		SittingMinRatio:  0.4,

		NoseStandingMaxY: 0.3,
		NoseSittingMinY:  0.4,

		DetectHandRaise: true,
		HandRaiseMargin: 0.05,
	}
}
