package report

import (
	"math"
	"time"
)

// GetDailyReport derives one day's report. date may be empty for today.
// A day without data returns HasData == false with zeroed aggregates.
func (e *Engine) GetDailyReport(studentName, date string) DailyReport {
	if date == "" {
		date = e.today
	}

	rec, ok := e.dailyData(date)[studentName]
	if !ok {
		return DailyReport{StudentName: studentName, Date: date}
	}

	focusRate := 0
	if rec.TotalSeconds > 0 {
		focusRate = int(math.Round(float64(rec.FocusedSeconds) / float64(rec.TotalSeconds) * 100))
	}

	return DailyReport{
		StudentName:       studentName,
		Date:              date,
		HasData:           true,
		TotalTime:         rec.TotalSeconds,
		FocusedTime:       rec.FocusedSeconds,
		FocusRate:         focusRate,
		AvgScore:          rec.AvgScore,
		MaxFocusDuration:  rec.MaxFocusDuration,
		MaxSeatedDuration: rec.MaxSeatedDuration,
		AwayCount:         rec.AwayCount,
		SessionCount:      len(rec.Sessions),
		Sessions:          rec.Sessions,
		Scores:            rec.Scores,
	}
}

// GetWeeklyReport rolls up the current week, Monday through today.
func (e *Engine) GetWeeklyReport(studentName string) PeriodReport {
	weekStart := mondayOf(e.now())
	report := PeriodReport{
		StudentName: studentName,
		WeekStart:   weekStart.Format(dateLayout),
	}

	var scores []int
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i).Format(dateLayout)
		if date > e.today {
			break
		}
		scores = e.accumulateDay(&report, studentName, date, scores)
	}

	finishPeriod(&report, scores)
	return report
}

// GetMonthlyReport rolls up one calendar month. year and month (1-12) may
// be zero for the current month.
func (e *Engine) GetMonthlyReport(studentName string, year int, month time.Month) PeriodReport {
	now := e.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}

	report := PeriodReport{
		StudentName: studentName,
		Year:        year,
		Month:       int(month),
	}

	var scores []int
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		if date > e.today {
			break
		}
		scores = e.accumulateDay(&report, studentName, date, scores)
	}

	finishPeriod(&report, scores)
	return report
}

// GetMonthlyComparison compares the current calendar month against the
// previous one. Percentage deltas are 0 when the prior baseline is 0.
func (e *Engine) GetMonthlyComparison(studentName string) MonthlyComparison {
	now := e.now()
	curYear, curMonth := now.Year(), now.Month()

	prev := time.Date(curYear, curMonth, 1, 0, 0, 0, 0, time.Local).AddDate(0, -1, 0)
	prevYear, prevMonth := prev.Year(), prev.Month()

	current := e.GetMonthlyReport(studentName, curYear, curMonth)
	last := e.GetMonthlyReport(studentName, prevYear, prevMonth)

	return MonthlyComparison{
		HasLastMonthData: last.ActiveDays > 0,
		LastMonth: MonthSummary{
			Year:              prevYear,
			Month:             int(prevMonth),
			FocusedTime:       last.FocusedTime,
			MaxSeatedDuration: last.MaxSeatedDuration,
		},
		CurrentMonth: MonthSummary{
			Year:              curYear,
			Month:             int(curMonth),
			FocusedTime:       current.FocusedTime,
			MaxSeatedDuration: current.MaxSeatedDuration,
		},
		Changes: Changes{
			FocusedTime:              current.FocusedTime - last.FocusedTime,
			FocusedTimePercent:       percentDelta(current.FocusedTime, last.FocusedTime),
			MaxSeatedDuration:        current.MaxSeatedDuration - last.MaxSeatedDuration,
			MaxSeatedDurationPercent: percentDelta(current.MaxSeatedDuration, last.MaxSeatedDuration),
		},
	}
}

// accumulateDay folds one daily report into a period rollup.
func (e *Engine) accumulateDay(report *PeriodReport, studentName, date string, scores []int) []int {
	daily := e.GetDailyReport(studentName, date)
	report.Days = append(report.Days, daily)

	if !daily.HasData {
		return scores
	}

	report.ActiveDays++
	report.TotalTime += daily.TotalTime
	report.FocusedTime += daily.FocusedTime
	report.TotalAwayCount += daily.AwayCount

	if daily.MaxFocusDuration > report.MaxFocusDuration {
		report.MaxFocusDuration = daily.MaxFocusDuration
	}
	if daily.MaxSeatedDuration > report.MaxSeatedDuration {
		report.MaxSeatedDuration = daily.MaxSeatedDuration
	}

	for _, s := range daily.Scores {
		scores = append(scores, s.Score)
	}
	return scores
}

func finishPeriod(report *PeriodReport, scores []int) {
	if report.TotalTime > 0 {
		report.FocusRate = int(math.Round(float64(report.FocusedTime) / float64(report.TotalTime) * 100))
	}
	if len(scores) > 0 {
		sum := 0
		for _, s := range scores {
			sum += s
		}
		report.AvgScore = int(math.Round(float64(sum) / float64(len(scores))))
	}
}

// percentDelta returns the rounded percentage change, 0 when the baseline
// is empty.
func percentDelta(current, baseline int) int {
	if baseline <= 0 {
		return 0
	}
	return int(math.Round(float64(current-baseline) / float64(baseline) * 100))
}

// mondayOf returns the Monday of t's week at local midnight.
func mondayOf(t time.Time) time.Time {
	day := int(t.Weekday())
	if day == 0 {
		day = 7
	}
	d := t.AddDate(0, 0, 1-day)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
}
