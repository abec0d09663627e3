package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *fakeClock, *[]protocol.AlertData) {
	clock := &fakeClock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	alerts := &[]protocol.AlertData{}

	m := NewManager(DefaultConfig())
	m.now = clock.now
	m.SetAlertFunc(func(a protocol.AlertData) {
		*alerts = append(*alerts, a)
	})
	return m, clock, alerts
}

func lastAlert(t *testing.T, alerts *[]protocol.AlertData) protocol.AlertData {
	t.Helper()
	if len(*alerts) == 0 {
		t.Fatal("expected an alert")
	}
	return (*alerts)[len(*alerts)-1]
}

func TestRegisterRejectsActiveDuplicate(t *testing.T) {
	m, _, _ := newTestManager()

	if _, err := m.Register("Dana", "3"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if _, err := m.Register("Dana", "3"); !errors.Is(err, ErrNameTaken) {
		t.Errorf("duplicate Register() error = %v, want ErrNameTaken", err)
	}
}

func TestRegisterReplacesDisconnected(t *testing.T) {
	m, _, _ := newTestManager()

	first, err := m.Register("Dana", "3")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	m.HandleDisconnect(first.ID)

	second, err := m.Register("Dana", "3")
	if err != nil {
		t.Fatalf("re-Register() after disconnect error = %v", err)
	}
	if second.ID == first.ID {
		t.Error("replacement should get a fresh ID")
	}
	if _, err := m.Get(first.ID); !errors.Is(err, ErrNotFound) {
		t.Error("stale entry should be removed on replacement")
	}
}

func TestRegisterReplacesNoResponse(t *testing.T) {
	m, clock, _ := newTestManager()

	first, _ := m.Register("Dana", "3")
	clock.advance(11 * time.Second)
	m.Tick()

	got, _ := m.Get(first.ID)
	if got.Status != protocol.StatusNoResponse {
		t.Fatalf("status = %s, want no_response", got.Status)
	}

	if _, err := m.Register("Dana", "3"); err != nil {
		t.Errorf("re-Register() over no_response error = %v", err)
	}
}

func TestWatchdogFlagsNoResponse(t *testing.T) {
	m, clock, alerts := newTestManager()

	sub, _ := m.Register("Dana", "3")
	m.UpdateStatus(sub.ID, protocol.StatusSitting, nil)

	clock.advance(9 * time.Second)
	m.Tick()
	if got, _ := m.Get(sub.ID); got.Status != protocol.StatusSitting {
		t.Fatal("watchdog fired before the timeout")
	}

	clock.advance(2 * time.Second)
	*alerts = nil
	m.Tick()

	got, _ := m.Get(sub.ID)
	if got.Status != protocol.StatusNoResponse {
		t.Fatalf("status = %s, want no_response", got.Status)
	}
	if got.NoResponseAt.IsZero() {
		t.Error("NoResponseAt should be recorded")
	}
	if a := lastAlert(t, alerts); a.Severity != protocol.SeverityWarning {
		t.Errorf("alert severity = %s, want warning", a.Severity)
	}

	// A fresh update recovers the subject.
	m.UpdateStatus(sub.ID, protocol.StatusSitting, nil)
	got, _ = m.Get(sub.ID)
	if got.Status != protocol.StatusSitting || !got.NoResponseAt.IsZero() {
		t.Error("subject should recover on the next update")
	}
}

func TestEvictionAfterDisconnect(t *testing.T) {
	m, clock, _ := newTestManager()

	sub, _ := m.Register("Dana", "3")
	m.HandleDisconnect(sub.ID)

	clock.advance(59 * time.Second)
	m.Tick()
	if _, err := m.Get(sub.ID); err != nil {
		t.Fatal("disconnected subject evicted too early")
	}

	clock.advance(2 * time.Second)
	m.Tick()
	if _, err := m.Get(sub.ID); !errors.Is(err, ErrNotFound) {
		t.Error("disconnected subject should be evicted after the grace period")
	}
}

func TestAwayTimeAccounting(t *testing.T) {
	m, clock, _ := newTestManager()

	sub, _ := m.Register("Dana", "3")
	m.UpdateStatus(sub.ID, protocol.StatusSitting, nil)

	m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
	clock.advance(30 * time.Second)
	m.UpdateStatus(sub.ID, protocol.StatusSitting, nil)

	got, _ := m.Get(sub.ID)
	if got.TotalAwayTime != 30*time.Second {
		t.Errorf("TotalAwayTime = %s, want 30s", got.TotalAwayTime)
	}
	if !got.AwayStartTime.IsZero() {
		t.Error("AwayStartTime should clear when the episode ends")
	}
}

func TestAwayAlertsOncePerEpisode(t *testing.T) {
	m, clock, alerts := newTestManager()

	sub, _ := m.Register("Dana", "3")
	m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
	*alerts = nil

	countBySeverity := func(sev protocol.Severity) int {
		n := 0
		for _, a := range *alerts {
			if a.Severity == sev {
				n++
			}
		}
		return n
	}

	// Push away updates every second for four minutes.
	for i := 0; i < 240; i++ {
		clock.advance(time.Second)
		m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
	}

	if n := countBySeverity(protocol.SeverityWarning); n != 1 {
		t.Errorf("warning alerts = %d, want 1", n)
	}
	if n := countBySeverity(protocol.SeverityCritical); n != 1 {
		t.Errorf("critical alerts = %d, want 1", n)
	}

	// A new episode re-arms both thresholds.
	m.UpdateStatus(sub.ID, protocol.StatusSitting, nil)
	m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
	*alerts = nil
	for i := 0; i < 240; i++ {
		clock.advance(time.Second)
		m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
	}
	if n := countBySeverity(protocol.SeverityWarning); n != 1 {
		t.Errorf("second episode warning alerts = %d, want 1", n)
	}
}

func TestAwayAlertNotDuplicatedByWatchdog(t *testing.T) {
	m, clock, alerts := newTestManager()

	sub, _ := m.Register("Dana", "3")
	m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
	*alerts = nil

	// Updates and watchdog ticks both check the episode thresholds;
	// the latch must keep them from double-firing.
	for i := 0; i < 70; i++ {
		clock.advance(time.Second)
		m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
		m.Tick()
	}
	if a := lastAlert(t, alerts); a.Severity != protocol.SeverityWarning {
		t.Errorf("alert severity = %s, want warning", a.Severity)
	}
	if len(*alerts) != 1 {
		t.Errorf("alerts = %d, want 1 despite repeated ticks", len(*alerts))
	}
}

func TestNoAwayAccountingOutsideLesson(t *testing.T) {
	m, clock, alerts := newTestManager()
	m.SetLessonFunc(func() bool { return false })

	sub, _ := m.Register("Dana", "3")
	*alerts = nil

	m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
	clock.advance(5 * time.Minute)
	m.UpdateStatus(sub.ID, protocol.StatusAway, nil)
	m.UpdateStatus(sub.ID, protocol.StatusSitting, nil)

	got, _ := m.Get(sub.ID)
	if got.TotalAwayTime != 0 {
		t.Errorf("TotalAwayTime = %s, want 0 outside lessons", got.TotalAwayTime)
	}
	if len(*alerts) != 0 {
		t.Errorf("alerts = %d, want 0 outside lessons", len(*alerts))
	}
}

func TestVeryLowFocusAlertIsOneShot(t *testing.T) {
	m, _, alerts := newTestManager()

	sub, _ := m.Register("Dana", "3")
	*alerts = nil

	low := &protocol.FocusData{Score: 10, Level: protocol.FocusVeryLow}
	m.UpdateStatus(sub.ID, protocol.StatusSitting, low)
	m.UpdateStatus(sub.ID, protocol.StatusSitting, low)
	if len(*alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 while level stays very_low", len(*alerts))
	}

	// Leaving and re-entering very_low re-arms the alert.
	ok := &protocol.FocusData{Score: 85, Level: protocol.FocusHigh}
	m.UpdateStatus(sub.ID, protocol.StatusSitting, ok)
	m.UpdateStatus(sub.ID, protocol.StatusSitting, low)
	if len(*alerts) != 2 {
		t.Errorf("alerts = %d, want 2 after level recovered in between", len(*alerts))
	}
}

func TestVeryLowFocusAlertOnlyDuringLesson(t *testing.T) {
	m, _, alerts := newTestManager()

	lesson := false
	m.SetLessonFunc(func() bool { return lesson })

	sub, _ := m.Register("Dana", "3")
	*alerts = nil

	low := &protocol.FocusData{Score: 10, Level: protocol.FocusVeryLow}
	m.UpdateStatus(sub.ID, protocol.StatusSitting, low)
	if len(*alerts) != 0 {
		t.Fatalf("alerts = %d, want 0 outside lessons", len(*alerts))
	}

	// Once the lesson starts the warning fires normally.
	lesson = true
	m.UpdateStatus(sub.ID, protocol.StatusSitting, low)
	if len(*alerts) != 1 {
		t.Errorf("alerts = %d, want 1 during the lesson", len(*alerts))
	}
}

func TestFocusHistoryCap(t *testing.T) {
	m, clock, _ := newTestManager()
	sub, _ := m.Register("Dana", "3")

	for i := 0; i < 650; i++ {
		clock.advance(time.Second)
		m.UpdateStatus(sub.ID, protocol.StatusSitting, &protocol.FocusData{
			Score: 80, Level: protocol.FocusHigh,
		})
	}

	got, _ := m.Get(sub.ID)
	if len(got.FocusHistory) != 600 {
		t.Errorf("history length = %d, want 600", len(got.FocusHistory))
	}
	// Oldest samples evicted first.
	if got.FocusHistory[0].Timestamp >= got.FocusHistory[599].Timestamp {
		t.Error("history should stay in arrival order")
	}
}

func TestStats(t *testing.T) {
	m, _, _ := newTestManager()

	a, _ := m.Register("A", "1")
	b, _ := m.Register("B", "1")
	c, _ := m.Register("C", "1")
	d, _ := m.Register("D", "1")

	m.UpdateStatus(a.ID, protocol.StatusSitting, nil)
	m.UpdateStatus(b.ID, protocol.StatusStanding, nil)
	m.UpdateStatus(c.ID, protocol.StatusAway, nil)
	m.HandleDisconnect(d.ID)

	st := m.Stats()
	if st.Total != 4 || st.Sitting != 1 || st.Standing != 1 || st.Away != 2 {
		t.Errorf("stats = %+v", st)
	}
}
