package protocol

// Status is a subject's discrete activity/presence state.
type Status string

const (
	StatusUnknown      Status = "unknown"
	StatusStanding     Status = "standing"
	StatusSitting      Status = "sitting"
	StatusAway         Status = "away"
	StatusHandRaised   Status = "hand_raised"
	StatusNoResponse   Status = "no_response"
	StatusDisconnected Status = "disconnected"
)

// Active reports whether the status counts as an active connection.
// Registration name-uniqueness is enforced over active subjects only.
func (s Status) Active() bool {
	return s != StatusDisconnected && s != StatusNoResponse
}

// FocusLevel bands a focus score for display and alerting.
type FocusLevel string

const (
	FocusHigh    FocusLevel = "high"     // score >= 80
	FocusMedium  FocusLevel = "medium"   // 50-79
	FocusLow     FocusLevel = "low"      // 30-49
	FocusVeryLow FocusLevel = "very_low" // < 30
)

// LevelForScore maps a 0-100 focus score to its level band.
func LevelForScore(score int) FocusLevel {
	switch {
	case score >= 80:
		return FocusHigh
	case score >= 50:
		return FocusMedium
	case score >= 30:
		return FocusLow
	default:
		return FocusVeryLow
	}
}

// Severity classifies an alert for the monitoring dashboard.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)
