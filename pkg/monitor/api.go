package monitor

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jmoon-dev/go-classwatch/pkg/report"
)

func (s *Server) registerAPIRoutes(api fiber.Router) {
	api.Get("/roster", s.handleRoster)
	api.Get("/stats", s.handleStats)

	api.Get("/report/daily/:name", s.handleDailyReport)
	api.Get("/report/weekly/:name", s.handleWeeklyReport)
	api.Get("/report/monthly/:name", s.handleMonthlyReport)
	api.Get("/report/comparison/:name", s.handleComparison)

	api.Post("/timer/toggle", s.handleTimerToggle)
	api.Post("/timer/lesson", s.handleTimerLesson)
	api.Post("/timer/break", s.handleTimerBreak)
}

func (s *Server) handleRoster(c *fiber.Ctx) error {
	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()

	return c.JSON(rosterPayload{
		Subjects: s.roster.List(),
		Stats:    s.roster.Stats(),
		Timer:    state,
	})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()

	return c.JSON(fiber.Map{
		"roster": s.roster.Stats(),
		"timer":  state,
	})
}

func (s *Server) handleDailyReport(c *fiber.Ctx) error {
	name := c.Params("name")
	date := c.Query("date")

	s.engineMu.Lock()
	r := s.engine.GetDailyReport(name, date)
	s.engineMu.Unlock()

	return c.JSON(fiber.Map{
		"report":          r,
		"grade":           report.GradeForRate(r.FocusRate),
		"totalTimeText":   report.FormatDuration(r.TotalTime),
		"focusedTimeText": report.FormatDuration(r.FocusedTime),
	})
}

func (s *Server) handleWeeklyReport(c *fiber.Ctx) error {
	name := c.Params("name")

	s.engineMu.Lock()
	r := s.engine.GetWeeklyReport(name)
	s.engineMu.Unlock()

	return c.JSON(fiber.Map{
		"report": r,
		"grade":  report.GradeForRate(r.FocusRate),
	})
}

func (s *Server) handleMonthlyReport(c *fiber.Ctx) error {
	name := c.Params("name")
	year := c.QueryInt("year")
	month := c.QueryInt("month")
	if month < 0 || month > 12 {
		return fiber.NewError(fiber.StatusBadRequest, "month must be 1-12")
	}

	s.engineMu.Lock()
	r := s.engine.GetMonthlyReport(name, year, time.Month(month))
	s.engineMu.Unlock()

	return c.JSON(fiber.Map{
		"report": r,
		"grade":  report.GradeForRate(r.FocusRate),
	})
}

func (s *Server) handleComparison(c *fiber.Ctx) error {
	name := c.Params("name")

	s.engineMu.Lock()
	r := s.engine.GetMonthlyComparison(name)
	s.engineMu.Unlock()

	return c.JSON(r)
}

func (s *Server) handleTimerToggle(c *fiber.Ctx) error {
	if err := s.submitTimerCmd(s.timer.Toggle); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) handleTimerLesson(c *fiber.Ctx) error {
	if err := s.submitTimerCmd(s.timer.ForceLesson); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) handleTimerBreak(c *fiber.Ctx) error {
	if err := s.submitTimerCmd(s.timer.ForceBreak); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}
