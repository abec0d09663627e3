package monitor

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/jmoon-dev/go-classwatch/internal/log"
	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
	"github.com/jmoon-dev/go-classwatch/pkg/roster"
)

// registerWait bounds how long a fresh connection may sit silent before
// sending its registration.
const registerWait = 10 * time.Second

// studentConn is one connected student agent.
type studentConn struct {
	ID   string
	Name string
	conn *websocket.Conn

	mu sync.Mutex
}

// Send writes a message to the student. Serialized because the control
// loop and the read handler both push.
func (sc *studentConn) Send(msg *protocol.Message) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return sc.conn.WriteMessage(websocket.TextMessage, data)
}

// handleStudent runs one student connection: registration handshake,
// then the periodic status stream until the socket closes.
func (s *Server) handleStudent(c *websocket.Conn) {
	sub, ok := s.registerStudent(c)
	if !ok {
		return
	}

	logger := log.With("subject", sub.ID, "name", sub.Name)

	sc := &studentConn{ID: sub.ID, Name: sub.Name, conn: c}
	s.studentsMu.Lock()
	s.students[sub.ID] = sc
	s.studentsMu.Unlock()

	defer func() {
		s.studentsMu.Lock()
		delete(s.students, sub.ID)
		s.studentsMu.Unlock()
		s.roster.HandleDisconnect(sub.ID)
	}()

	// Bring the newcomer up to date on the class period.
	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()
	if msg, err := protocol.NewClassModeMessage(string(state.Mode), state.Remaining); err == nil {
		sc.Send(msg)
	}

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			logger.Debug("student read closed", "error", err)
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			logger.Warn("unparseable student message", "error", err)
			continue
		}

		if msg.Type != protocol.TypeStatus {
			continue
		}

		var status protocol.StatusData
		if err := msg.ParseData(&status); err != nil {
			logger.Warn("bad status payload", "error", err)
			continue
		}
		if err := protocol.Validate(&status); err != nil {
			logger.Warn("invalid status payload", "error", err)
			continue
		}

		if err := s.roster.UpdateStatus(sub.ID, status.Status, status.Focus); err != nil {
			logger.Warn("status update rejected", "error", err)
			return
		}
	}
}

// registerStudent performs the handshake: the first message must be a
// valid registration, answered with registered or name_duplicate.
func (s *Server) registerStudent(c *websocket.Conn) (*roster.Subject, bool) {
	c.SetReadDeadline(time.Now().Add(registerWait))
	_, data, err := c.ReadMessage()
	if err != nil {
		return nil, false
	}
	c.SetReadDeadline(time.Time{})

	msg, err := protocol.ParseMessage(data)
	if err != nil || msg.Type != protocol.TypeRegister {
		log.Warn("connection did not register", "error", err)
		return nil, false
	}

	var reg protocol.RegisterData
	if err := msg.ParseData(&reg); err != nil {
		log.Warn("bad register payload", "error", err)
		return nil, false
	}
	if err := protocol.Validate(&reg); err != nil {
		log.Warn("invalid register payload", "error", err)
		return nil, false
	}

	sub, err := s.roster.Register(reg.Name, reg.Grade)
	if err != nil {
		if errors.Is(err, roster.ErrNameTaken) {
			if reject, rerr := protocol.NewNameDuplicateMessage("that name is already in use"); rerr == nil {
				if data, derr := reject.Bytes(); derr == nil {
					c.WriteMessage(websocket.TextMessage, data)
				}
			}
		}
		return nil, false
	}

	ack, err := protocol.NewRegisteredMessage(sub.ID)
	if err != nil {
		return nil, false
	}
	ackData, err := ack.Bytes()
	if err != nil {
		return nil, false
	}
	if err := c.WriteMessage(websocket.TextMessage, ackData); err != nil {
		s.roster.HandleDisconnect(sub.ID)
		return nil, false
	}

	return sub, true
}
