// Package pipeline wires the subject-side loop: landmark frames flow in
// at capture rate and feed the posture classifier and focus scorer, a
// 1 Hz tick computes the score and polls presence, and a slower ticker
// pushes status to the monitor over websocket. All analyzer state is
// touched from the single Run loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmoon-dev/go-classwatch/internal/log"
	"github.com/jmoon-dev/go-classwatch/pkg/focus"
	"github.com/jmoon-dev/go-classwatch/pkg/landmark"
	"github.com/jmoon-dev/go-classwatch/pkg/posture"
	"github.com/jmoon-dev/go-classwatch/pkg/presence"
	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
)

var (
	// ErrNameTaken reports a registration rejected by the monitor.
	ErrNameTaken = errors.New("pipeline: display name already in use")

	// ErrNotConnected is returned by Run before a successful Connect.
	ErrNotConnected = errors.New("pipeline: not connected")
)

// Pipeline is one subject's monitoring session.
type Pipeline struct {
	cfg Config

	scorer  *focus.Scorer
	tracker *presence.Tracker

	frames chan landmark.Frame

	conn      *websocket.Conn
	subjectID string

	// status is the latest posture classification, overridden by away.
	status protocol.Status

	classMode string
}

// New creates a pipeline. Call Connect before Run.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		scorer:  focus.NewScorer(cfg.Focus),
		tracker: presence.NewTracker(cfg.Presence),
		frames:  make(chan landmark.Frame, cfg.FrameBuffer),
		status:  protocol.StatusUnknown,
	}
}

// Connect dials the monitor and performs the registration handshake.
func (p *Pipeline) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.cfg.MonitorURL, nil)
	if err != nil {
		return fmt.Errorf("dial monitor: %w", err)
	}

	reg, err := protocol.NewRegisterMessage(p.cfg.Name, p.cfg.Grade)
	if err != nil {
		conn.Close()
		return err
	}
	data, err := reg.Bytes()
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		conn.Close()
		return fmt.Errorf("send registration: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return fmt.Errorf("read registration reply: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	msg, err := protocol.ParseMessage(reply)
	if err != nil {
		conn.Close()
		return fmt.Errorf("parse registration reply: %w", err)
	}

	switch msg.Type {
	case protocol.TypeRegistered:
		var ack protocol.RegisteredData
		if err := msg.ParseData(&ack); err != nil {
			conn.Close()
			return err
		}
		p.subjectID = ack.SubjectID
		p.conn = conn
		log.Info("registered with monitor", "subject", p.subjectID, "name", p.cfg.Name)
		return nil

	case protocol.TypeNameDuplicate:
		conn.Close()
		return ErrNameTaken

	default:
		conn.Close()
		return fmt.Errorf("unexpected registration reply: %s", msg.Type)
	}
}

// SubmitFrame queues one landmark frame. Never blocks; the frame is
// dropped when the loop is behind.
func (p *Pipeline) SubmitFrame(f landmark.Frame) {
	select {
	case p.frames <- f:
	default:
	}
}

// Run drives the session until the context is cancelled or the monitor
// connection drops.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.conn == nil {
		return ErrNotConnected
	}
	defer p.conn.Close()

	p.tracker.Start()

	inbound := make(chan *protocol.Message, 8)
	readErr := make(chan error, 1)
	go p.readPump(inbound, readErr)

	compute := time.NewTicker(time.Second)
	defer compute.Stop()
	push := time.NewTicker(p.cfg.PushInterval)
	defer push.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return fmt.Errorf("monitor connection lost: %w", err)

		case f := <-p.frames:
			p.handleFrame(f)

		case <-compute.C:
			p.computeCycle()

		case <-push.C:
			if err := p.pushStatus(); err != nil {
				return fmt.Errorf("status push failed: %w", err)
			}

		case msg := <-inbound:
			p.handleInbound(msg)
		}
	}
}

// handleFrame classifies posture and feeds the analyzers at frame rate.
func (p *Pipeline) handleFrame(f landmark.Frame) {
	detected := posture.CoreVisible(f, p.cfg.Posture.MinConfidence)

	if p.tracker.Observe(detected) {
		p.scorer.SetAway(true)
	}

	st := posture.Classify(f, p.cfg.Posture)
	if st != protocol.StatusUnknown {
		p.scorer.ObserveFrame(f)
		if !p.tracker.Away() {
			p.status = st
		}
	}
}

// computeCycle runs the 1 Hz score computation and presence poll.
func (p *Pipeline) computeCycle() {
	if p.tracker.Tick() {
		p.scorer.SetAway(true)
	}
	if p.tracker.Away() {
		p.status = protocol.StatusAway
		return
	}
	p.scorer.Compute()
}

func (p *Pipeline) pushStatus() error {
	msg, err := protocol.NewStatusMessage(p.cfg.Name, p.cfg.Grade, p.currentStatus(), p.scorer.WireData())
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// currentStatus resolves posture against the presence tracker.
func (p *Pipeline) currentStatus() protocol.Status {
	if p.tracker.Away() {
		return protocol.StatusAway
	}
	return p.status
}

func (p *Pipeline) handleInbound(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeClassMode:
		var mode protocol.ClassModeData
		if err := msg.ParseData(&mode); err != nil {
			log.Warn("bad class mode payload", "error", err)
			return
		}
		if mode.Mode != p.classMode {
			log.Info("class mode changed", "mode", mode.Mode, "remaining", mode.RemainingSeconds)
		}
		p.classMode = mode.Mode
	}
}

// readPump forwards monitor messages to the run loop.
func (p *Pipeline) readPump(inbound chan<- *protocol.Message, readErr chan<- error) {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("unparseable monitor message", "error", err)
			continue
		}
		select {
		case inbound <- msg:
		default:
			// Loop is busy, drop rather than stall the reader.
		}
	}
}

// Status returns the last resolved status. Run-loop context only.
func (p *Pipeline) Status() protocol.Status {
	return p.currentStatus()
}

// Score returns the current focus score. Run-loop context only.
func (p *Pipeline) Score() int {
	return p.scorer.Score()
}
