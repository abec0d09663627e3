package roster

import (
	"time"

	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
)

// Subject is one monitored student's live state on the monitor side.
// Fields are mutated only by the Manager under its lock; callers receive
// copies.
type Subject struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Grade  string          `json:"grade"`
	Status protocol.Status `json:"status"`

	LastUpdate time.Time `json:"lastUpdate"`

	// AwayStartTime is set while an away episode is open during a lesson.
	AwayStartTime time.Time     `json:"awayStartTime,omitempty"`
	TotalAwayTime time.Duration `json:"totalAwayTime"`

	Focus        *protocol.FocusData    `json:"focus,omitempty"`
	FocusHistory []protocol.FocusSample `json:"focusHistory,omitempty"`

	DisconnectedAt time.Time `json:"disconnectedAt,omitempty"`
	NoResponseAt   time.Time `json:"noResponseAt,omitempty"`

	// One-shot alert latches, reset when the triggering condition clears.
	awayWarned      bool
	awayEscalated   bool
	lowFocusAlerted bool
}

// Active reports whether the subject currently counts toward the
// display-name uniqueness check.
func (s *Subject) Active() bool {
	return s.Status.Active()
}

func (s *Subject) clone() *Subject {
	c := *s
	if s.Focus != nil {
		f := *s.Focus
		c.Focus = &f
	}
	c.FocusHistory = append([]protocol.FocusSample(nil), s.FocusHistory...)
	return &c
}

// Stats is a roster-wide status breakdown for dashboard surfaces.
// Away folds in subjects that stopped responding or disconnected.
type Stats struct {
	Total      int `json:"total"`
	Standing   int `json:"standing"`
	Sitting    int `json:"sitting"`
	Away       int `json:"away"`
	HandRaised int `json:"handRaised"`
}
