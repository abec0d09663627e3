// Package protocol defines the websocket message types exchanged between the
// student agent, the monitor server and its dashboard clients, plus the
// status and focus-level vocabulary shared across the pipeline.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// MessageType identifies the type of websocket message
type MessageType string

const (
	// Student → Monitor messages
	TypeRegister MessageType = "register" // One-time registration
	TypeStatus   MessageType = "status"   // Periodic status push

	// Monitor → Student messages
	TypeRegistered    MessageType = "registered"     // Registration accepted
	TypeNameDuplicate MessageType = "name_duplicate" // Registration rejected
	TypeClassMode     MessageType = "class_mode"     // Lesson/break change

	// Monitor → Dashboard messages
	TypeAlert  MessageType = "alert"
	TypeRoster MessageType = "roster"
)

// Message is the base wrapper for all websocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Student → Monitor payloads
// =============================================================================

// RegisterData is sent once when a student connects.
type RegisterData struct {
	Name  string `json:"name" validate:"required,max=64"`
	Grade string `json:"grade" validate:"max=32"`
}

// StatusData is the periodic status push (default every 1500 ms).
type StatusData struct {
	Name   string     `json:"name" validate:"required,max=64"`
	Grade  string     `json:"grade,omitempty" validate:"max=32"`
	Status Status     `json:"status" validate:"required"`
	Focus  *FocusData `json:"focus,omitempty"`
}

// FocusData is the wire form of a focus snapshot.
type FocusData struct {
	Score   int           `json:"score"`
	Level   FocusLevel    `json:"level"`
	History []FocusSample `json:"history,omitempty"` // most recent seconds
	Current FocusFlags    `json:"current"`
}

// FocusSample is one scored second.
type FocusSample struct {
	Score     int   `json:"score"`
	Timestamp int64 `json:"timestamp"` // Unix milliseconds
}

// FocusFlags are the per-cycle behavioral flags.
type FocusFlags struct {
	HeadDown    bool `json:"headDown"`
	LookingAway bool `json:"lookingAway"`
	Present     bool `json:"present"`
}

// =============================================================================
// Monitor → Student payloads
// =============================================================================

// RegisteredData acknowledges a successful registration.
type RegisteredData struct {
	SubjectID string `json:"subject_id"`
}

// NameDuplicateData rejects a registration whose name is already held by an
// active subject.
type NameDuplicateData struct {
	Message string `json:"message"`
}

// ClassModeData announces a lesson/break transition.
type ClassModeData struct {
	Mode             string `json:"mode"` // "lesson", "break", "stopped"
	RemainingSeconds int    `json:"remaining_seconds"`
}

// =============================================================================
// Monitor → Dashboard payloads
// =============================================================================

// AlertData is a notable event for the monitoring dashboard.
type AlertData struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

var validate = validator.New()

// Validate checks a payload against its validation tags.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid message payload: %w", err)
	}
	return nil
}
