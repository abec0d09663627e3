package pipeline

import (
	"time"

	"github.com/jmoon-dev/go-classwatch/pkg/focus"
	"github.com/jmoon-dev/go-classwatch/pkg/posture"
	"github.com/jmoon-dev/go-classwatch/pkg/presence"
)

// Config holds the subject agent settings.
type Config struct {
	// MonitorURL is the monitor's student websocket endpoint.
	MonitorURL string

	Name  string
	Grade string

	// PushInterval is the status push cadence.
	PushInterval time.Duration

	// FrameBuffer bounds the landmark intake queue. Frames beyond it
	// are dropped, never blocked on.
	FrameBuffer int

	Posture  posture.Config
	Presence presence.Config
	Focus    focus.Config
}

// DefaultConfig returns production settings for a local monitor.
func DefaultConfig() Config {
	return Config{
		MonitorURL:   "ws://localhost:8090/ws/student",
		PushInterval: 1500 * time.Millisecond,
		FrameBuffer:  64,
		Posture:      posture.DefaultConfig(),
		Presence:     presence.DefaultConfig(),
		Focus:        focus.DefaultConfig(),
	}
}
