// Package focus turns landmark frames into a rolling 0-100 attentiveness
// score.
//
// Frames are accumulated at capture rate into per-second counters; once per
// second the scorer blends head position, gaze direction and presence into a
// weighted score. Presence loss is absorbed for a few cycles before it
// counts, so transient detection failures do not crater the score.
//
// The scorer is not internally synchronized: the pipeline drives both the
// frame path and the compute tick from a single loop.
package focus

import (
	"math"
	"time"

	"github.com/jmoon-dev/go-classwatch/pkg/landmark"
	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
)

// Accumulator collects per-frame behavioral counters for one compute window.
// headDownFrames is fractional: shoulder tilt charges a partial penalty.
type Accumulator struct {
	HeadDownFrames    float64
	LookingAwayFrames int
	NotPresentFrames  int
	TotalFrames       int
}

// Sample is one scored second kept in history.
type Sample struct {
	Score     int
	Timestamp time.Time

	// Rounded sub-scores, kept for report drill-down.
	HeadScore     int
	GazeScore     int
	PresenceScore int
}

// Snapshot is the scorer's externally visible state after a compute cycle.
type Snapshot struct {
	Score   int
	Level   protocol.FocusLevel
	Flags   protocol.FocusFlags
	History []Sample
}

// ChangeFunc receives every emitted snapshot.
type ChangeFunc func(Snapshot)

// Scorer computes focus scores for a single subject.
type Scorer struct {
	cfg Config
	now func() time.Time

	score              int
	flags              protocol.FocusFlags
	history            []Sample
	acc                Accumulator
	consecutiveMissing int

	onChange ChangeFunc
}

// NewScorer creates a scorer starting at full focus.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{
		cfg:   cfg,
		now:   time.Now,
		score: 100,
		flags: protocol.FocusFlags{Present: true},
	}
}

// OnChange sets the callback invoked after every emitted snapshot.
func (s *Scorer) OnChange(fn ChangeFunc) {
	s.onChange = fn
}

// ObserveFrame feeds one landmark frame into the current compute window.
// Callers only pass frames whose core landmarks were judged visible.
func (s *Scorer) ObserveFrame(f landmark.Frame) {
	s.acc.TotalFrames++

	nose := f.At(landmark.Nose)
	leftEye := f.At(landmark.LeftEye)
	rightEye := f.At(landmark.RightEye)
	leftEar := f.At(landmark.LeftEar)
	rightEar := f.At(landmark.RightEar)
	leftShoulder := f.At(landmark.LeftShoulder)
	rightShoulder := f.At(landmark.RightShoulder)

	shoulderCenterX := (leftShoulder.X + rightShoulder.X) / 2
	shoulderCenterY := (leftShoulder.Y + rightShoulder.Y) / 2

	// Head down: the nose drops toward the shoulder line.
	if shoulderCenterY-nose.Y < s.cfg.HeadDownThreshold {
		s.acc.HeadDownFrames++
		s.flags.HeadDown = true
	} else {
		s.flags.HeadDown = false
	}

	// Looking away: lateral nose drift, ear visibility asymmetry (head
	// turned), or eye tilt (head cocked).
	noseOffsetX := math.Abs(nose.X - shoulderCenterX)
	earDiff := math.Abs(leftEar.Visibility - rightEar.Visibility)
	eyeTilt := math.Abs(leftEye.Y - rightEye.Y)

	lookingAway := noseOffsetX > s.cfg.NoseOffsetThreshold ||
		earDiff > s.cfg.EarVisDiffThreshold ||
		eyeTilt > s.cfg.EyeTiltThreshold
	if lookingAway {
		s.acc.LookingAwayFrames++
		s.flags.LookingAway = true
	} else {
		s.flags.LookingAway = false
	}

	// Slouching charges a partial head-down penalty on top.
	if math.Abs(leftShoulder.Y-rightShoulder.Y) > s.cfg.ShoulderTiltThreshold {
		s.acc.HeadDownFrames += s.cfg.ShoulderTiltPenalty
	}

	faceVisible := nose.Visibility > s.cfg.NoseVisThreshold &&
		(leftEye.Visibility > s.cfg.EyeVisThreshold || rightEye.Visibility > s.cfg.EyeVisThreshold)
	if !faceVisible {
		s.acc.NotPresentFrames++
		s.flags.Present = false
	} else {
		s.flags.Present = true
	}
}

// Compute runs the once-per-second scoring cycle and emits a snapshot.
func (s *Scorer) Compute() Snapshot {
	if s.acc.TotalFrames == 0 {
		// No frames at all this cycle: decay toward zero and flag absence.
		// The accumulator is already empty, nothing else to reset.
		s.score = clampScore(s.score - s.cfg.SilentCycleDecay)
		s.flags.Present = false
		return s.emit()
	}

	// Frames arrived, so the subject is present unless the hysteresis
	// below says otherwise.
	s.flags.Present = true

	total := float64(s.acc.TotalFrames)
	headScore := 100 - s.acc.HeadDownFrames/total*100
	gazeScore := 100 - float64(s.acc.LookingAwayFrames)/total*100

	// Presence hysteresis: a cycle that missed more than half its frames
	// counts against the grace budget; within the budget the score and the
	// present flag hold steady.
	rawPresenceRatio := 1 - float64(s.acc.NotPresentFrames)/total
	presenceScore := 100.0
	if rawPresenceRatio < 0.5 {
		s.consecutiveMissing++
		if s.consecutiveMissing >= s.cfg.MissGraceCycles {
			presenceScore = 0
			s.flags.Present = false
		}
	} else {
		s.consecutiveMissing = 0
	}

	w := s.cfg.Weights
	s.score = clampScore(int(math.Round(
		headScore*w.Head + gazeScore*w.Gaze + presenceScore*w.Presence)))

	s.history = append(s.history, Sample{
		Score:         s.score,
		Timestamp:     s.now(),
		HeadScore:     int(math.Round(headScore)),
		GazeScore:     int(math.Round(gazeScore)),
		PresenceScore: int(math.Round(presenceScore)),
	})
	if len(s.history) > s.cfg.HistoryLength {
		s.history = s.history[1:]
	}

	s.acc = Accumulator{}

	return s.emit()
}

// SetAway forces the score to zero when the presence tracker has declared
// the subject away. It bypasses the weighted formula entirely.
func (s *Scorer) SetAway(away bool) {
	if !away {
		return
	}
	s.score = 0
	s.flags.Present = false
	s.emit()
}

// Reset returns the scorer to its initial state for a new session.
func (s *Scorer) Reset() {
	s.score = 100
	s.flags = protocol.FocusFlags{Present: true}
	s.history = nil
	s.acc = Accumulator{}
	s.consecutiveMissing = 0
}

// Score returns the current focus score.
func (s *Scorer) Score() int {
	return s.score
}

// Level returns the current focus level band.
func (s *Scorer) Level() protocol.FocusLevel {
	return protocol.LevelForScore(s.score)
}

// Snapshot returns the current state without running a compute cycle.
func (s *Scorer) Snapshot() Snapshot {
	return Snapshot{
		Score:   s.score,
		Level:   s.Level(),
		Flags:   s.flags,
		History: s.history,
	}
}

// WireData renders the snapshot for the status push, trimmed to the
// configured trailing window.
func (s *Scorer) WireData() *protocol.FocusData {
	history := s.history
	if len(history) > s.cfg.WireHistory {
		history = history[len(history)-s.cfg.WireHistory:]
	}

	samples := make([]protocol.FocusSample, len(history))
	for i, h := range history {
		samples[i] = protocol.FocusSample{
			Score:     h.Score,
			Timestamp: h.Timestamp.UnixMilli(),
		}
	}

	return &protocol.FocusData{
		Score:   s.score,
		Level:   s.Level(),
		History: samples,
		Current: s.flags,
	}
}

func (s *Scorer) emit() Snapshot {
	snap := s.Snapshot()
	if s.onChange != nil {
		s.onChange(snap)
	}
	return snap
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
