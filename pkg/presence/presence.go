// Package presence tracks landmark-detection failures and decides when a
// subject has left the camera's view.
//
// Two independent paths can raise "away": a consecutive-miss frame counter
// fed at capture rate, and a wall-clock timeout polled once per second. The
// wall-clock path only arms after a warm-up so model startup lag does not
// read as an empty seat.
package presence

import "time"

// Config holds the away-detection thresholds
type Config struct {
	// MaxMissedFrames is the consecutive low-confidence frame count beyond
	// which the subject is considered away.
	MaxMissedFrames int

	// DetectionTimeout is the wall-clock silence after the last good
	// detection beyond which the subject is considered away.
	DetectionTimeout time.Duration

	// Warmup suppresses the wall-clock check right after Start.
	Warmup time.Duration
}

// DefaultConfig returns the thresholds used by the observed deployments
func DefaultConfig() Config {
	return Config{
		MaxMissedFrames:  30,
		DetectionTimeout: 3 * time.Second,
		Warmup:           5 * time.Second,
	}
}

// Tracker watches a single subject's detection stream.
// Not safe for concurrent use; the pipeline drives it from one loop.
type Tracker struct {
	cfg Config
	now func() time.Time

	startedAt     time.Time
	lastDetection time.Time
	missCount     int
	away          bool
}

// NewTracker creates a tracker with the given thresholds.
func NewTracker(cfg Config) *Tracker {
	t := &Tracker{
		cfg: cfg,
		now: time.Now,
	}
	t.Start()
	return t
}

// Start resets the tracker for a new monitoring session.
func (t *Tracker) Start() {
	now := t.now()
	t.startedAt = now
	t.lastDetection = now
	t.missCount = 0
	t.away = false
}

// Observe records one capture tick. detected is true when the frame carried
// acceptable core-landmark visibility. It returns true exactly when this
// observation transitions the subject into away.
func (t *Tracker) Observe(detected bool) bool {
	if detected {
		t.missCount = 0
		t.lastDetection = t.now()
		t.away = false
		return false
	}

	t.missCount++
	if t.missCount > t.cfg.MaxMissedFrames {
		return t.raise()
	}
	return false
}

// Tick runs the wall-clock check; the pipeline calls it once per second.
// It returns true exactly when the check transitions the subject into away.
func (t *Tracker) Tick() bool {
	now := t.now()
	if now.Sub(t.startedAt) < t.cfg.Warmup {
		return false
	}
	if now.Sub(t.lastDetection) > t.cfg.DetectionTimeout {
		return t.raise()
	}
	return false
}

// Away reports whether the subject is currently considered away.
func (t *Tracker) Away() bool {
	return t.away
}

// MissCount returns the current consecutive-miss count.
func (t *Tracker) MissCount() int {
	return t.missCount
}

// raise flips to away; raising while already away is a no-op.
func (t *Tracker) raise() bool {
	if t.away {
		return false
	}
	t.away = true
	return true
}
