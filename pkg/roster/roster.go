// Package roster maintains the monitor-side registry of connected
// subjects: registration with display-name uniqueness, status updates
// with away-time accounting, and a once-per-second watchdog that flags
// unresponsive subjects and evicts stale disconnects.
package roster

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmoon-dev/go-classwatch/internal/log"
	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
)

var (
	// ErrNameTaken is returned when an active subject already holds the
	// requested display name.
	ErrNameTaken = errors.New("roster: display name already in use")

	// ErrNotFound is returned for operations on unknown subject IDs.
	ErrNotFound = errors.New("roster: subject not found")
)

// Config holds the watchdog and alert thresholds.
type Config struct {
	// NoResponseAfter forces a subject to no_response when no status
	// update arrives within this window.
	NoResponseAfter time.Duration

	// EvictAfter removes a subject that stays disconnected this long.
	EvictAfter time.Duration

	// AwayWarnAfter and AwayEscalateAfter set the two away-episode
	// alert thresholds. Each fires once per episode.
	AwayWarnAfter     time.Duration
	AwayEscalateAfter time.Duration

	// FocusHistoryLength caps the per-subject retained score samples.
	FocusHistoryLength int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		NoResponseAfter:    10 * time.Second,
		EvictAfter:         60 * time.Second,
		AwayWarnAfter:      60 * time.Second,
		AwayEscalateAfter:  180 * time.Second,
		FocusHistoryLength: 600,
	}
}

// AlertFunc receives roster alerts for broadcast.
type AlertFunc func(protocol.AlertData)

// Manager is the subject registry. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	subjects map[string]*Subject

	now          func() time.Time
	lessonActive func() bool
	onAlert      AlertFunc
}

// NewManager creates an empty registry.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:          cfg,
		subjects:     make(map[string]*Subject),
		now:          time.Now,
		lessonActive: func() bool { return true },
	}
}

// SetAlertFunc installs the alert sink. Alerts are delivered outside the
// registry lock.
func (m *Manager) SetAlertFunc(fn AlertFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAlert = fn
}

// SetLessonFunc installs the teaching-period gate. Away-time accounting
// and away alerts only run while it reports true.
func (m *Manager) SetLessonFunc(fn func() bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessonActive = fn
}

// Register adds a subject under a fresh connection ID. An active subject
// holding the same display name rejects the registration; a same-named
// subject that stopped responding or disconnected is replaced.
func (m *Manager) Register(name, grade string) (*Subject, error) {
	m.mu.Lock()

	for id, s := range m.subjects {
		if s.Name != name {
			continue
		}
		if s.Active() {
			m.mu.Unlock()
			return nil, ErrNameTaken
		}
		// Stale same-named entry, replace silently.
		delete(m.subjects, id)
	}

	sub := &Subject{
		ID:         uuid.NewString(),
		Name:       name,
		Grade:      grade,
		Status:     protocol.StatusUnknown,
		LastUpdate: m.now(),
	}
	m.subjects[sub.ID] = sub

	alert := m.onAlert
	m.mu.Unlock()

	log.Info("subject registered", "id", sub.ID, "name", name, "grade", grade)
	emit(alert, fmt.Sprintf("%s joined", name), protocol.SeverityInfo)
	return sub.clone(), nil
}

// UpdateStatus applies one inbound status push. A subject previously
// flagged no_response recovers on any update.
func (m *Manager) UpdateStatus(id string, status protocol.Status, focus *protocol.FocusData) error {
	m.mu.Lock()

	sub, ok := m.subjects[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}

	now := m.now()
	lesson := m.lessonActive()
	var alerts []protocol.AlertData

	sub.LastUpdate = now
	sub.NoResponseAt = time.Time{}

	if status != sub.Status {
		m.transition(sub, status, now, lesson)
	}
	if lesson && sub.Status == protocol.StatusAway {
		alerts = append(alerts, m.checkAwayEpisode(sub, now)...)
	}

	if focus != nil {
		sub.Focus = focus
		sub.FocusHistory = append(sub.FocusHistory, protocol.FocusSample{
			Score:     focus.Score,
			Timestamp: now.UnixMilli(),
		})
		if n := len(sub.FocusHistory); n > m.cfg.FocusHistoryLength {
			sub.FocusHistory = sub.FocusHistory[n-m.cfg.FocusHistoryLength:]
		}

		// Like away accounting, the very_low warning only applies
		// during a lesson.
		if lesson {
			if focus.Level == protocol.FocusVeryLow {
				if !sub.lowFocusAlerted {
					sub.lowFocusAlerted = true
					alerts = append(alerts, protocol.AlertData{
						Message:  fmt.Sprintf("%s's focus dropped very low", sub.Name),
						Severity: protocol.SeverityWarning,
					})
				}
			} else {
				sub.lowFocusAlerted = false
			}
		}
	}

	alert := m.onAlert
	m.mu.Unlock()

	for _, a := range alerts {
		emit(alert, a.Message, a.Severity)
	}
	return nil
}

// transition mutates sub.Status and handles away-episode bookkeeping.
// Caller holds the lock.
func (m *Manager) transition(sub *Subject, next protocol.Status, now time.Time, lesson bool) {
	prev := sub.Status
	sub.Status = next

	if !lesson {
		// Outside lessons an open episode stops accruing entirely.
		sub.AwayStartTime = time.Time{}
		return
	}

	if next == protocol.StatusAway && prev != protocol.StatusAway {
		sub.AwayStartTime = now
		sub.awayWarned = false
		sub.awayEscalated = false
	}
	if prev == protocol.StatusAway && next != protocol.StatusAway {
		if !sub.AwayStartTime.IsZero() {
			sub.TotalAwayTime += now.Sub(sub.AwayStartTime)
		}
		sub.AwayStartTime = time.Time{}
	}
}

// checkAwayEpisode fires the 60 s warning and 180 s escalation, each once
// per episode. Caller holds the lock.
func (m *Manager) checkAwayEpisode(sub *Subject, now time.Time) []protocol.AlertData {
	if sub.AwayStartTime.IsZero() {
		return nil
	}

	elapsed := now.Sub(sub.AwayStartTime)
	var alerts []protocol.AlertData

	if !sub.awayWarned && elapsed >= m.cfg.AwayWarnAfter {
		sub.awayWarned = true
		alerts = append(alerts, protocol.AlertData{
			Message:  fmt.Sprintf("%s has been away for over a minute", sub.Name),
			Severity: protocol.SeverityWarning,
		})
	}
	if !sub.awayEscalated && elapsed >= m.cfg.AwayEscalateAfter {
		sub.awayEscalated = true
		alerts = append(alerts, protocol.AlertData{
			Message:  fmt.Sprintf("%s has been away for over three minutes", sub.Name),
			Severity: protocol.SeverityCritical,
		})
	}
	return alerts
}

// HandleDisconnect marks a subject disconnected. The entry lingers for
// Config.EvictAfter so a quick reconnect can reclaim the name.
func (m *Manager) HandleDisconnect(id string) {
	m.mu.Lock()

	sub, ok := m.subjects[id]
	if !ok {
		m.mu.Unlock()
		return
	}

	now := m.now()
	m.transition(sub, protocol.StatusDisconnected, now, m.lessonActive())
	sub.DisconnectedAt = now

	name := sub.Name
	alert := m.onAlert
	m.mu.Unlock()

	log.Info("subject disconnected", "id", id, "name", name)
	emit(alert, fmt.Sprintf("%s disconnected", name), protocol.SeverityWarning)
}

// Tick runs the once-per-second watchdog: flags subjects with stale
// updates as no_response, escalates open away episodes, and evicts
// long-disconnected entries.
func (m *Manager) Tick() {
	m.mu.Lock()

	now := m.now()
	lesson := m.lessonActive()
	var alerts []protocol.AlertData

	for id, sub := range m.subjects {
		switch sub.Status {
		case protocol.StatusDisconnected:
			if now.Sub(sub.DisconnectedAt) > m.cfg.EvictAfter {
				delete(m.subjects, id)
				log.Debug("subject evicted", "id", id, "name", sub.Name)
			}

		case protocol.StatusNoResponse:
			// Waiting for the subject to push again.

		default:
			if now.Sub(sub.LastUpdate) > m.cfg.NoResponseAfter {
				m.transition(sub, protocol.StatusNoResponse, now, lesson)
				sub.NoResponseAt = now
				alerts = append(alerts, protocol.AlertData{
					Message:  fmt.Sprintf("%s stopped responding", sub.Name),
					Severity: protocol.SeverityWarning,
				})
				continue
			}
			if lesson && sub.Status == protocol.StatusAway {
				alerts = append(alerts, m.checkAwayEpisode(sub, now)...)
			}
		}
	}

	alert := m.onAlert
	m.mu.Unlock()

	for _, a := range alerts {
		emit(alert, a.Message, a.Severity)
	}
}

// Get returns a copy of one subject.
func (m *Manager) Get(id string) (*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subjects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sub.clone(), nil
}

// List returns copies of all subjects.
func (m *Manager) List() []*Subject {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Subject, 0, len(m.subjects))
	for _, sub := range m.subjects {
		out = append(out, sub.clone())
	}
	return out
}

// Stats returns the roster-wide status breakdown.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var st Stats
	for _, sub := range m.subjects {
		st.Total++
		switch sub.Status {
		case protocol.StatusStanding:
			st.Standing++
		case protocol.StatusSitting:
			st.Sitting++
		case protocol.StatusHandRaised:
			st.HandRaised++
		case protocol.StatusAway, protocol.StatusNoResponse, protocol.StatusDisconnected:
			st.Away++
		}
	}
	return st
}

func emit(fn AlertFunc, message string, severity protocol.Severity) {
	if fn == nil {
		return
	}
	fn(protocol.AlertData{Message: message, Severity: severity})
}
