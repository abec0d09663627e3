// Package schedule runs the class period timer that gates focus accounting.
// Away time and report aggregation only accrue while a lesson is in
// progress; breaks and the stopped state suspend both.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
)

// Mode is the current class period state.
type Mode string

const (
	ModeLesson  Mode = "lesson"
	ModeBreak   Mode = "break"
	ModeStopped Mode = "stopped"
)

// Config holds the period lengths
type Config struct {
	LessonDuration time.Duration
	BreakDuration  time.Duration

	// NotifyBefore fires a one-shot heads-up this long before a period ends.
	NotifyBefore time.Duration
}

// DefaultConfig returns a standard 50/10 minute schedule
func DefaultConfig() Config {
	return Config{
		LessonDuration: 50 * time.Minute,
		BreakDuration:  10 * time.Minute,
		NotifyBefore:   time.Minute,
	}
}

// AlertFunc receives timer announcements for the dashboard.
type AlertFunc func(message string, severity protocol.Severity)

// ModeChangeFunc receives mode transitions for broadcast to students.
type ModeChangeFunc func(mode Mode, remainingSeconds, lessonCount int)

// Timer drives lesson/break alternation at one tick per second.
// Not safe for concurrent use; the monitor drives it from its control loop.
type Timer struct {
	cfg Config

	mode             Mode
	remainingSeconds int
	lessonCount      int
	notifiedEnd      bool

	onAlert      AlertFunc
	onModeChange ModeChangeFunc
}

// NewTimer creates a stopped timer.
func NewTimer(cfg Config) *Timer {
	return &Timer{
		cfg:  cfg,
		mode: ModeStopped,
	}
}

// OnAlert sets the callback for timer announcements.
func (t *Timer) OnAlert(fn AlertFunc) {
	t.onAlert = fn
}

// OnModeChange sets the callback for mode transitions.
func (t *Timer) OnModeChange(fn ModeChangeFunc) {
	t.onModeChange = fn
}

// Start begins the first lesson.
func (t *Timer) Start() {
	t.mode = ModeLesson
	t.lessonCount = 1
	t.remainingSeconds = int(t.cfg.LessonDuration.Seconds())
	t.notifiedEnd = false

	t.notifyModeChange()
	t.alert(fmt.Sprintf("Lesson %d started (%d min)", t.lessonCount, int(t.cfg.LessonDuration.Minutes())), protocol.SeverityInfo)
}

// Stop halts the schedule entirely.
func (t *Timer) Stop() {
	t.mode = ModeStopped
	t.remainingSeconds = 0
	t.notifyModeChange()
	t.alert("Class timer stopped", protocol.SeverityInfo)
}

// Toggle starts a stopped timer or stops a running one.
func (t *Timer) Toggle() {
	if t.mode == ModeStopped {
		t.Start()
	} else {
		t.Stop()
	}
}

// ForceBreak switches to a break immediately.
func (t *Timer) ForceBreak() {
	if t.mode == ModeStopped {
		t.Start()
	}
	t.mode = ModeBreak
	t.remainingSeconds = int(t.cfg.BreakDuration.Seconds())
	t.notifiedEnd = false
	t.notifyModeChange()
	t.alert(fmt.Sprintf("Switched to break (%d min)", int(t.cfg.BreakDuration.Minutes())), protocol.SeverityInfo)
}

// ForceLesson switches to a lesson immediately.
func (t *Timer) ForceLesson() {
	if t.mode == ModeStopped {
		t.Start()
		return
	}
	t.mode = ModeLesson
	t.remainingSeconds = int(t.cfg.LessonDuration.Seconds())
	t.notifiedEnd = false
	t.notifyModeChange()
	t.alert(fmt.Sprintf("Switched to lesson (%d min)", int(t.cfg.LessonDuration.Minutes())), protocol.SeverityInfo)
}

// Tick advances the timer by one second.
func (t *Timer) Tick() {
	if t.mode == ModeStopped {
		return
	}

	t.remainingSeconds--

	if !t.notifiedEnd && t.remainingSeconds == int(t.cfg.NotifyBefore.Seconds()) {
		t.notifiedEnd = true
		if t.mode == ModeLesson {
			t.alert("Break starts in 1 minute", protocol.SeverityInfo)
		} else {
			t.alert("Lesson starts in 1 minute", protocol.SeverityInfo)
		}
	}

	if t.remainingSeconds <= 0 {
		t.switchMode()
		return
	}

	// Keep students loosely in sync near period boundaries.
	if t.remainingSeconds%5 == 0 || t.remainingSeconds <= 10 {
		t.notifyModeChange()
	}
}

// Run drives Tick at 1 Hz until the context is cancelled.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// IsLessonTime reports whether focus accounting should accrue.
func (t *Timer) IsLessonTime() bool {
	return t.mode == ModeLesson
}

// Mode returns the current period mode.
func (t *Timer) Mode() Mode {
	return t.mode
}

// Remaining returns the seconds left in the current period.
func (t *Timer) Remaining() int {
	return t.remainingSeconds
}

// LessonCount returns the number of lessons started so far.
func (t *Timer) LessonCount() int {
	return t.lessonCount
}

func (t *Timer) switchMode() {
	t.notifiedEnd = false

	if t.mode == ModeLesson {
		t.mode = ModeBreak
		t.remainingSeconds = int(t.cfg.BreakDuration.Seconds())
		t.alert(fmt.Sprintf("Break time (%d min)", int(t.cfg.BreakDuration.Minutes())), protocol.SeverityInfo)
	} else {
		t.mode = ModeLesson
		t.lessonCount++
		t.remainingSeconds = int(t.cfg.LessonDuration.Seconds())
		t.alert(fmt.Sprintf("Lesson %d started (%d min)", t.lessonCount, int(t.cfg.LessonDuration.Minutes())), protocol.SeverityInfo)
	}

	t.notifyModeChange()
}

func (t *Timer) alert(message string, severity protocol.Severity) {
	if t.onAlert != nil {
		t.onAlert(message, severity)
	}
}

func (t *Timer) notifyModeChange() {
	if t.onModeChange != nil {
		t.onModeChange(t.mode, t.remainingSeconds, t.lessonCount)
	}
}
