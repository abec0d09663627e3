package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
	"github.com/jmoon-dev/go-classwatch/pkg/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestEngine builds an engine over st with a controllable clock.
// 2025-03-12 is a Wednesday.
func newTestEngine(t *testing.T, st store.Store) (*Engine, *fakeClock) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.Local)}
	e, err := NewEngine(st)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.now = clock.now
	e.today = clock.t.Format(dateLayout)
	if err := e.loadToday(); err != nil {
		t.Fatalf("loadToday() error = %v", err)
	}
	return e, clock
}

// recordSeconds feeds n seconds of (score, status), advancing the clock
// one second per call like the real report tick.
func recordSeconds(e *Engine, clock *fakeClock, name string, score int, status protocol.Status, n int) {
	for i := 0; i < n; i++ {
		clock.advance(time.Second)
		e.Record(name, score, status)
	}
}

func TestFocusStreakAccounting(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	for _, score := range []int{80, 80, 80, 40, 90, 90} {
		recordSeconds(e, clock, "Dana", score, protocol.StatusSitting, 1)
	}

	rec := e.todayData["Dana"]
	if len(rec.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(rec.Sessions))
	}
	if rec.Sessions[0].Duration != 3 {
		t.Errorf("closed session duration = %d, want 3", rec.Sessions[0].Duration)
	}
	if rec.CurrentSessionStart == nil || rec.CurrentFocusDuration != 2 {
		t.Errorf("open streak duration = %d, want 2", rec.CurrentFocusDuration)
	}
	if rec.MaxFocusDuration != 3 {
		t.Errorf("MaxFocusDuration = %d, want 3", rec.MaxFocusDuration)
	}
	if rec.TotalSeconds != 6 || rec.FocusedSeconds != 5 {
		t.Errorf("totals = %d/%d, want 6/5", rec.TotalSeconds, rec.FocusedSeconds)
	}
}

func TestMaxFocusUpdatesLive(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	// Streak still open: max must already track it
	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 4)
	if rec := e.todayData["Dana"]; rec.MaxFocusDuration != 4 {
		t.Errorf("MaxFocusDuration = %d, want 4 with streak open", rec.MaxFocusDuration)
	}
}

func TestAwayCountOncePerEpisode(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 10)
	recordSeconds(e, clock, "Dana", 0, protocol.StatusAway, 45)
	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 5)
	recordSeconds(e, clock, "Dana", 0, protocol.StatusAway, 3)

	rec := e.todayData["Dana"]
	if rec.AwayCount != 2 {
		t.Errorf("AwayCount = %d, want 2 (one per episode)", rec.AwayCount)
	}
}

func TestSeatedStreak(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 20)
	recordSeconds(e, clock, "Dana", 0, protocol.StatusAway, 5)
	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 8)

	rec := e.todayData["Dana"]
	if rec.MaxSeatedDuration != 20 {
		t.Errorf("MaxSeatedDuration = %d, want 20", rec.MaxSeatedDuration)
	}
	if rec.CurrentSeatedDuration != 8 {
		t.Errorf("CurrentSeatedDuration = %d, want 8", rec.CurrentSeatedDuration)
	}
}

func TestLowScoreDoesNotEndSeatedStreak(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 10)
	recordSeconds(e, clock, "Dana", 20, protocol.StatusSitting, 10)

	rec := e.todayData["Dana"]
	if rec.CurrentSeatedDuration != 20 {
		t.Errorf("CurrentSeatedDuration = %d, want 20 (seated through low score)", rec.CurrentSeatedDuration)
	}
	if rec.AwayCount != 0 {
		t.Errorf("AwayCount = %d, want 0", rec.AwayCount)
	}
}

func TestScoreSampling(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	recordSeconds(e, clock, "Dana", 80, protocol.StatusSitting, 35)

	rec := e.todayData["Dana"]
	if len(rec.Scores) != 3 {
		t.Errorf("samples = %d, want 3 (one per 10s)", len(rec.Scores))
	}
	if rec.AvgScore != 80 {
		t.Errorf("AvgScore = %d, want 80", rec.AvgScore)
	}
}

func TestDailyReport(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 30)
	recordSeconds(e, clock, "Dana", 30, protocol.StatusSitting, 10)

	r := e.GetDailyReport("Dana", "")
	if !r.HasData {
		t.Fatal("report should have data")
	}
	if r.TotalTime != 40 || r.FocusedTime != 30 {
		t.Errorf("times = %d/%d, want 40/30", r.TotalTime, r.FocusedTime)
	}
	if r.FocusRate != 75 {
		t.Errorf("FocusRate = %d, want 75", r.FocusRate)
	}

	empty := e.GetDailyReport("Nobody", "")
	if empty.HasData {
		t.Error("unknown student should report no data")
	}
	if empty.FocusRate != 0 || empty.TotalTime != 0 {
		t.Error("empty report should be zeroed")
	}
}

func TestWeeklyReportSumsDays(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	// Rewind to Monday of the same week and record across three days.
	clock.t = time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	e.today = clock.t.Format(dateLayout)
	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 60)

	clock.t = time.Date(2025, 3, 11, 9, 0, 0, 0, time.Local)
	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 120)

	clock.t = time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local)
	recordSeconds(e, clock, "Dana", 50, protocol.StatusSitting, 30)

	weekly := e.GetWeeklyReport("Dana")
	if weekly.WeekStart != "2025-03-10" {
		t.Errorf("WeekStart = %s, want 2025-03-10", weekly.WeekStart)
	}
	if weekly.ActiveDays != 3 {
		t.Errorf("ActiveDays = %d, want 3", weekly.ActiveDays)
	}
	if weekly.TotalTime != 210 {
		t.Errorf("TotalTime = %d, want 210", weekly.TotalTime)
	}
	if weekly.FocusedTime != 180 {
		t.Errorf("FocusedTime = %d, want 180", weekly.FocusedTime)
	}

	// The rollup must equal the sum of its daily reports.
	sum := 0
	for _, d := range weekly.Days {
		sum += d.TotalTime
	}
	if sum != weekly.TotalTime {
		t.Errorf("TotalTime %d != sum of days %d", weekly.TotalTime, sum)
	}

	// Days after today are excluded entirely.
	if len(weekly.Days) != 3 {
		t.Errorf("Days = %d, want 3 (future days excluded)", len(weekly.Days))
	}
}

func TestMonthlyComparisonZeroBaseline(t *testing.T) {
	e, clock := newTestEngine(t, store.NewMemory())

	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 100)

	cmp := e.GetMonthlyComparison("Dana")
	if cmp.HasLastMonthData {
		t.Error("no prior month data expected")
	}
	if cmp.Changes.FocusedTimePercent != 0 || cmp.Changes.MaxSeatedDurationPercent != 0 {
		t.Errorf("percent deltas = %d/%d, want 0/0 on zero baseline",
			cmp.Changes.FocusedTimePercent, cmp.Changes.MaxSeatedDurationPercent)
	}
	if cmp.Changes.FocusedTime != 100 {
		t.Errorf("FocusedTime delta = %d, want 100", cmp.Changes.FocusedTime)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	st := store.NewMemory()
	e, clock := newTestEngine(t, st)

	recordSeconds(e, clock, "Dana", 90, protocol.StatusSitting, 25)
	recordSeconds(e, clock, "Dana", 0, protocol.StatusAway, 5)
	e.Flush()

	// A fresh engine over the same store must see identical aggregates.
	e2, _ := newTestEngine(t, st)
	before := e.GetDailyReport("Dana", "")
	after := e2.GetDailyReport("Dana", "")

	if before.TotalTime != after.TotalTime ||
		before.FocusedTime != after.FocusedTime ||
		before.AwayCount != after.AwayCount ||
		before.MaxFocusDuration != after.MaxFocusDuration ||
		before.MaxSeatedDuration != after.MaxSeatedDuration ||
		before.AvgScore != after.AvgScore {
		t.Errorf("round trip mismatch:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestLegacyUTCKeyFallback(t *testing.T) {
	// Records written before local-date keys were stored under the UTC
	// date of local midnight. Pin a zone where the two renderings
	// differ: midnight 2025-03-11 at UTC+9 is still 2025-03-10 in UTC.
	origLocal := time.Local
	time.Local = time.FixedZone("UTC+9", 9*3600)
	defer func() { time.Local = origLocal }()

	st := store.NewMemory()
	legacy := map[string]*DailyRecord{
		"Dana": {
			StudentName:    "Dana",
			Date:           "2025-03-11",
			TotalSeconds:   120,
			FocusedSeconds: 90,
		},
	}
	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal legacy record: %v", err)
	}
	if err := st.Put(dailyKey("2025-03-10"), data); err != nil {
		t.Fatalf("seed legacy key: %v", err)
	}

	e, _ := newTestEngine(t, st)

	r := e.GetDailyReport("Dana", "2025-03-11")
	if !r.HasData {
		t.Fatal("report should resolve through the legacy UTC key")
	}
	if r.TotalTime != 120 || r.FocusedTime != 90 {
		t.Errorf("times = %d/%d, want 120/90", r.TotalTime, r.FocusedTime)
	}

	// The local-date key still wins when both exist.
	current := map[string]*DailyRecord{
		"Dana": {StudentName: "Dana", Date: "2025-03-11", TotalSeconds: 30},
	}
	data, _ = json.Marshal(current)
	if err := st.Put(dailyKey("2025-03-11"), data); err != nil {
		t.Fatalf("seed local key: %v", err)
	}
	if r := e.GetDailyReport("Dana", "2025-03-11"); r.TotalTime != 30 {
		t.Errorf("TotalTime = %d, want 30 from the local-date key", r.TotalTime)
	}
}

func TestGradeForRate(t *testing.T) {
	tests := []struct {
		rate int
		want string
	}{
		{95, "A+"}, {90, "A+"}, {85, "A"}, {75, "B+"},
		{65, "B"}, {55, "C"}, {49, "D"}, {0, "D"},
	}
	for _, tt := range tests {
		if got := GradeForRate(tt.rate); got.Grade != tt.want {
			t.Errorf("GradeForRate(%d) = %s, want %s", tt.rate, got.Grade, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0m"}, {-3, "0m"}, {42, "42s"}, {90, "1m 30s"}, {3700, "1h 1m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}
