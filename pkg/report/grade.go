package report

import "fmt"

// Grade is a letter band for a focus rate.
type Grade struct {
	Grade string `json:"grade"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// GradeForRate maps a 0-100 focus rate to its letter grade.
func GradeForRate(rate int) Grade {
	switch {
	case rate >= 90:
		return Grade{"A+", "excellent", "#10B981"}
	case rate >= 80:
		return Grade{"A", "great", "#34D399"}
	case rate >= 70:
		return Grade{"B+", "good", "#60A5FA"}
	case rate >= 60:
		return Grade{"B", "fair", "#FBBF24"}
	case rate >= 50:
		return Grade{"C", "needs attention", "#F97316"}
	default:
		return Grade{"D", "warning", "#EF4444"}
	}
}

// FormatDuration renders a second count for report surfaces.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0m"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
