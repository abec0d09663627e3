// Package report aggregates per-second focus observations into persisted
// daily records and rolls them up into weekly and monthly reports.
//
// The engine is fed once per second per subject, only while a lesson is in
// progress. A second counts as focused when the score is at least
// FocusedScoreMin and the subject is not away. Records persist through a
// pluggable key-value store under one key per calendar day.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jmoon-dev/go-classwatch/internal/log"
	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
	"github.com/jmoon-dev/go-classwatch/pkg/store"
)

const (
	// keyPrefix namespaces all persisted record keys.
	keyPrefix = "focus_"

	// FocusedScoreMin is the score floor for a second to count as focused.
	FocusedScoreMin = 70

	// sampleEvery controls score sampling and persistence cadence (seconds).
	sampleEvery = 10

	// maxScoreSamples caps the retained samples per day (~1 hour).
	maxScoreSamples = 360

	dateLayout = "2006-01-02"
)

// Engine owns the in-memory records for today and the persisted history.
// Mutated only from the monitor's control loop; no internal locking.
type Engine struct {
	store store.Store
	now   func() time.Time

	today     string
	todayData map[string]*DailyRecord
}

// NewEngine creates an engine over the given store and loads today's
// records if any were persisted earlier.
func NewEngine(st store.Store) (*Engine, error) {
	e := &Engine{
		store: st,
		now:   time.Now,
	}
	e.today = e.now().Format(dateLayout)
	if err := e.loadToday(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) loadToday() error {
	e.todayData = make(map[string]*DailyRecord)

	data, err := e.store.Get(dailyKey(e.today))
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load today's records: %w", err)
	}

	if err := json.Unmarshal(data, &e.todayData); err != nil {
		// Corrupt records resolve to an empty day, never to a failure.
		log.Warn("discarding corrupt daily record", "date", e.today, "error", err)
		e.todayData = make(map[string]*DailyRecord)
	}
	return nil
}

// Record ingests one second of (score, status) for a subject. Callers gate
// on the class schedule; every call counts one second of lesson time.
func (e *Engine) Record(studentName string, score int, status protocol.Status) {
	e.rolloverIfNeeded()

	now := e.now().UnixMilli()
	rec, ok := e.todayData[studentName]
	if !ok {
		rec = &DailyRecord{
			StudentName: studentName,
			Date:        e.today,
			StartTime:   now,
		}
		e.todayData[studentName] = rec
	}

	rec.LastUpdate = now
	rec.TotalSeconds++

	isAway := status == protocol.StatusAway
	isFocused := score >= FocusedScoreMin && !isAway

	if isFocused {
		rec.FocusedSeconds++

		if rec.CurrentSessionStart == nil {
			start := now
			rec.CurrentSessionStart = &start
			rec.CurrentFocusDuration = 0
		}
		rec.CurrentFocusDuration++

		// Track the running max live, not only at streak end.
		if rec.CurrentFocusDuration > rec.MaxFocusDuration {
			rec.MaxFocusDuration = rec.CurrentFocusDuration
		}
	} else if rec.CurrentSessionStart != nil {
		rec.Sessions = append(rec.Sessions, FocusSession{
			StartTime: *rec.CurrentSessionStart,
			EndTime:   now,
			Duration:  rec.CurrentFocusDuration,
		})
		rec.CurrentSessionStart = nil
		rec.CurrentFocusDuration = 0
	}

	// Away is counted on the transition edge only, and it closes the
	// seated streak.
	if isAway && rec.LastStatus != protocol.StatusAway {
		rec.AwayCount++

		if rec.SeatedSessionStart != nil && rec.CurrentSeatedDuration > 0 {
			if rec.CurrentSeatedDuration > rec.MaxSeatedDuration {
				rec.MaxSeatedDuration = rec.CurrentSeatedDuration
			}
			rec.SeatedSessionStart = nil
			rec.CurrentSeatedDuration = 0
		}
	}

	if !isAway {
		if rec.SeatedSessionStart == nil {
			start := now
			rec.SeatedSessionStart = &start
			rec.CurrentSeatedDuration = 0
		}
		rec.CurrentSeatedDuration++

		if rec.CurrentSeatedDuration > rec.MaxSeatedDuration {
			rec.MaxSeatedDuration = rec.CurrentSeatedDuration
		}
	}

	rec.LastStatus = status

	if rec.TotalSeconds%sampleEvery == 0 {
		rec.Scores = append(rec.Scores, ScoreSample{Time: now, Score: score})
		if len(rec.Scores) > maxScoreSamples {
			rec.Scores = rec.Scores[1:]
		}
	}

	if len(rec.Scores) > 0 {
		sum := 0
		for _, s := range rec.Scores {
			sum += s.Score
		}
		rec.AvgScore = int(math.Round(float64(sum) / float64(len(rec.Scores))))
	}

	if rec.TotalSeconds%sampleEvery == 0 {
		e.Flush()
	}
}

// Flush persists today's records. Persistence failures are logged, not
// propagated: the hot path never blocks on I/O errors.
func (e *Engine) Flush() {
	data, err := json.Marshal(e.todayData)
	if err != nil {
		log.Error("marshal daily records", "error", err)
		return
	}
	if err := e.store.Put(dailyKey(e.today), data); err != nil {
		log.Error("persist daily records", "date", e.today, "error", err)
	}
}

// rolloverIfNeeded closes out yesterday's in-memory records when the local
// date changes under a long-running monitor.
func (e *Engine) rolloverIfNeeded() {
	today := e.now().Format(dateLayout)
	if today == e.today {
		return
	}
	e.Flush()
	e.today = today
	e.todayData = make(map[string]*DailyRecord)
}

// dailyData returns all records for a date, today from memory, other days
// from the store. Absent or corrupt data resolves to an empty map.
func (e *Engine) dailyData(date string) map[string]*DailyRecord {
	if date == e.today {
		return e.todayData
	}

	data, err := e.store.Get(dailyKey(date))
	if err == store.ErrNotFound {
		// Fall back to the legacy UTC-dated key for records written
		// before local-date keys.
		if utc := utcDateKey(date); utc != date {
			data, err = e.store.Get(dailyKey(utc))
		}
	}
	if err != nil || data == nil {
		return map[string]*DailyRecord{}
	}

	records := make(map[string]*DailyRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn("discarding corrupt daily record", "date", date, "error", err)
		return map[string]*DailyRecord{}
	}
	return records
}

func dailyKey(date string) string {
	return keyPrefix + "daily_" + date
}

// utcDateKey renders the UTC date of the given local civil date's midnight.
func utcDateKey(date string) string {
	t, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return date
	}
	return t.UTC().Format(dateLayout)
}
