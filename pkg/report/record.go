package report

import "github.com/jmoon-dev/go-classwatch/pkg/protocol"

// FocusSession is one completed continuous-focus streak.
type FocusSession struct {
	StartTime int64 `json:"startTime"` // Unix milliseconds
	EndTime   int64 `json:"endTime"`
	Duration  int   `json:"duration"` // seconds
}

// ScoreSample is one retained score, sampled every 10 recorded seconds.
type ScoreSample struct {
	Time  int64 `json:"time"` // Unix milliseconds
	Score int   `json:"score"`
}

// DailyRecord is one subject's accumulated focus statistics for one
// calendar day. It is the persisted shape: field names match the stored
// JSON and must stay stable.
type DailyRecord struct {
	StudentName string `json:"studentName"`
	Date        string `json:"date"` // YYYY-MM-DD, local
	StartTime   int64  `json:"startTime"`
	LastUpdate  int64  `json:"lastUpdate"`

	TotalSeconds   int `json:"totalSeconds"`
	FocusedSeconds int `json:"focusedSeconds"`

	Scores []ScoreSample `json:"scores"`

	Sessions            []FocusSession `json:"sessions"`
	CurrentSessionStart *int64         `json:"currentSessionStart"`
	MaxFocusDuration    int            `json:"maxFocusDuration"`
	CurrentFocusDuration int           `json:"currentFocusDuration"`

	AwayCount int             `json:"awayCount"`
	AvgScore  int             `json:"avgScore"`
	LastStatus protocol.Status `json:"lastStatus"`

	MaxSeatedDuration     int    `json:"maxSeatedDuration"`
	CurrentSeatedDuration int    `json:"currentSeatedDuration"`
	SeatedSessionStart    *int64 `json:"seatedSessionStart"`
}

// DailyReport is the derived view of one day handed to UI collaborators.
type DailyReport struct {
	StudentName string `json:"studentName"`
	Date        string `json:"date"`
	HasData     bool   `json:"hasData"`

	TotalTime         int            `json:"totalTime"`
	FocusedTime       int            `json:"focusedTime"`
	FocusRate         int            `json:"focusRate"`
	AvgScore          int            `json:"avgScore"`
	MaxFocusDuration  int            `json:"maxFocusDuration"`
	MaxSeatedDuration int            `json:"maxSeatedDuration"`
	AwayCount         int            `json:"awayCount"`
	SessionCount      int            `json:"sessionCount"`
	Sessions          []FocusSession `json:"sessions"`
	Scores            []ScoreSample  `json:"scores"`
}

// PeriodReport is a weekly or monthly rollup over daily reports.
type PeriodReport struct {
	StudentName string `json:"studentName"`

	// WeekStart is set for weekly reports, Year/Month for monthly ones.
	WeekStart string `json:"weekStart,omitempty"`
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"` // 1-12

	Days []DailyReport `json:"days"`

	TotalTime         int `json:"totalTime"`
	FocusedTime       int `json:"focusedTime"`
	FocusRate         int `json:"focusRate"`
	AvgScore          int `json:"avgScore"`
	MaxFocusDuration  int `json:"maxFocusDuration"`
	MaxSeatedDuration int `json:"maxSeatedDuration"`
	TotalAwayCount    int `json:"totalAwayCount"`
	ActiveDays        int `json:"activeDays"`
}

// MonthSummary is one side of a month-over-month comparison.
type MonthSummary struct {
	Year              int `json:"year"`
	Month             int `json:"month"`
	FocusedTime       int `json:"focusedTime"`
	MaxSeatedDuration int `json:"maxSeatedDuration"`
}

// MonthlyComparison reports absolute and percentage deltas between the
// current and previous calendar months.
type MonthlyComparison struct {
	HasLastMonthData bool         `json:"hasLastMonthData"`
	LastMonth        MonthSummary `json:"lastMonth"`
	CurrentMonth     MonthSummary `json:"currentMonth"`
	Changes          Changes      `json:"changes"`
}

// Changes holds the comparison deltas. Percentages are 0 when the prior
// baseline is 0.
type Changes struct {
	FocusedTime              int `json:"focusedTime"`
	FocusedTimePercent       int `json:"focusedTimePercent"`
	MaxSeatedDuration        int `json:"maxSeatedDuration"`
	MaxSeatedDurationPercent int `json:"maxSeatedDurationPercent"`
}
