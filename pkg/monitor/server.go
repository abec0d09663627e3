// Package monitor is the teacher-side server: it accepts student agent
// websocket connections, maintains the roster, drives the class schedule
// and report aggregation from a single control loop, and serves the
// dashboard websocket and reports API.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	contribws "github.com/gofiber/contrib/websocket"
	dashws "github.com/gofiber/websocket/v2"

	"github.com/jmoon-dev/go-classwatch/internal/log"
	"github.com/jmoon-dev/go-classwatch/pkg/hub"
	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
	"github.com/jmoon-dev/go-classwatch/pkg/report"
	"github.com/jmoon-dev/go-classwatch/pkg/roster"
	"github.com/jmoon-dev/go-classwatch/pkg/schedule"
)

// timerState is the snapshot of the class timer published by the control
// loop for concurrent readers.
type timerState struct {
	Mode        schedule.Mode `json:"mode"`
	Remaining   int           `json:"remaining_seconds"`
	LessonCount int           `json:"lesson_count"`
}

// Server wires the roster, schedule, report engine and websocket planes.
type Server struct {
	app  *fiber.App
	port string

	roster *roster.Manager
	engine *report.Engine
	timer  *schedule.Timer
	dash   *hub.Hub

	// engineMu guards engine access between the control loop and the
	// reports API handlers.
	engineMu sync.Mutex

	// The timer is mutated only on the control loop; handlers submit
	// closures and read the published snapshot.
	timerCmds chan func()
	stateMu   sync.RWMutex
	state     timerState

	studentsMu sync.RWMutex
	students   map[string]*studentConn
}

// NewServer assembles the monitor around its collaborators.
func NewServer(port string, ro *roster.Manager, eng *report.Engine, timer *schedule.Timer) *Server {
	s := &Server{
		port:      port,
		roster:    ro,
		engine:    eng,
		timer:     timer,
		dash:      hub.New("dashboard"),
		timerCmds: make(chan func(), 8),
		students:  make(map[string]*studentConn),
		state:     timerState{Mode: schedule.ModeStopped},
	}

	ro.SetAlertFunc(s.broadcastAlert)
	ro.SetLessonFunc(s.lessonActive)

	timer.OnAlert(func(message string, severity protocol.Severity) {
		s.broadcastAlert(protocol.AlertData{Message: message, Severity: severity})
	})
	timer.OnModeChange(s.broadcastClassMode)

	app := fiber.New(fiber.Config{
		AppName:               "classwatch monitor",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	s.registerAPIRoutes(app.Group("/api"))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if contribws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/student", contribws.New(s.handleStudent))
	app.Get("/ws/dashboard", dashws.New(s.handleDashboard))

	s.app = app
	return s
}

// Start begins serving. Blocks until Shutdown.
func (s *Server) Start() error {
	go s.dash.Run()
	log.Info("monitor listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown stops the server and flushes pending report state.
func (s *Server) Shutdown() error {
	s.dash.Stop()

	s.engineMu.Lock()
	s.engine.Flush()
	s.engineMu.Unlock()

	return s.app.Shutdown()
}

// Run is the 1 Hz control loop: schedule tick, roster watchdog, report
// ingestion and dashboard pushes. The timer and engine are only mutated
// here.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.timerCmds:
			cmd()
			s.publishTimerState()
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Server) tick() {
	s.timer.Tick()
	s.publishTimerState()

	s.roster.Tick()

	if s.timer.IsLessonTime() {
		s.engineMu.Lock()
		for _, sub := range s.roster.List() {
			if sub.Focus == nil || !sub.Status.Active() {
				continue
			}
			s.engine.Record(sub.Name, sub.Focus.Score, sub.Status)
		}
		s.engineMu.Unlock()
	}

	s.broadcastRoster()
}

func (s *Server) publishTimerState() {
	s.stateMu.Lock()
	s.state = timerState{
		Mode:        s.timer.Mode(),
		Remaining:   s.timer.Remaining(),
		LessonCount: s.timer.LessonCount(),
	}
	s.stateMu.Unlock()
}

func (s *Server) lessonActive() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Mode == schedule.ModeLesson
}

// submitTimerCmd hands a timer mutation to the control loop.
func (s *Server) submitTimerCmd(cmd func()) error {
	select {
	case s.timerCmds <- cmd:
		return nil
	case <-time.After(time.Second):
		return fiber.ErrServiceUnavailable
	}
}

// handleDashboard attaches a dashboard client to the broadcast hub.
func (s *Server) handleDashboard(c *dashws.Conn) {
	hub.NewClient(s.dash, c).Run()
}

// rosterPayload is the periodic dashboard roster push.
type rosterPayload struct {
	Subjects []*roster.Subject `json:"subjects"`
	Stats    roster.Stats      `json:"stats"`
	Timer    timerState        `json:"timer"`
}

func (s *Server) broadcastRoster() {
	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()

	msg, err := protocol.NewMessage(protocol.TypeRoster, rosterPayload{
		Subjects: s.roster.List(),
		Stats:    s.roster.Stats(),
		Timer:    state,
	})
	if err != nil {
		log.Error("encode roster push", "error", err)
		return
	}
	if err := s.dash.BroadcastMessage(*msg); err != nil {
		log.Error("broadcast roster push", "error", err)
	}
}

func (s *Server) broadcastAlert(a protocol.AlertData) {
	msg, err := protocol.NewAlertMessage(a.Message, a.Severity)
	if err != nil {
		log.Error("encode alert", "error", err)
		return
	}
	if err := s.dash.BroadcastMessage(*msg); err != nil {
		log.Error("broadcast alert", "error", err)
	}
}

// broadcastClassMode notifies dashboards and every connected student.
func (s *Server) broadcastClassMode(mode schedule.Mode, remainingSeconds, lessonCount int) {
	msg, err := protocol.NewClassModeMessage(string(mode), remainingSeconds)
	if err != nil {
		log.Error("encode class mode", "error", err)
		return
	}

	if err := s.dash.BroadcastMessage(*msg); err != nil {
		log.Error("broadcast class mode", "error", err)
	}

	s.studentsMu.RLock()
	conns := make([]*studentConn, 0, len(s.students))
	for _, sc := range s.students {
		conns = append(conns, sc)
	}
	s.studentsMu.RUnlock()

	for _, sc := range conns {
		if err := sc.Send(msg); err != nil {
			log.Debug("class mode push failed", "subject", sc.ID, "error", err)
		}
	}
}
