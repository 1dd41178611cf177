package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocketMessageType represents message type constants
type WebSocketMessageType string

const (
	SnapshotMessage WebSocketMessageType = "snapshot"
	PingMessage     WebSocketMessageType = "ping"
	ErrorMessage    WebSocketMessageType = "error"
)

// TaskSnapshot is the server push sent to a connected client: the owner's
// full task list, newest first, on every relevant change.
type TaskSnapshot struct {
	ID        string               `json:"id"`
	Type      WebSocketMessageType `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Tasks     []Task               `json:"tasks"`
}

func NewTaskSnapshot(tasks []Task) *TaskSnapshot {
	return &TaskSnapshot{
		ID:        uuid.New().String(),
		Type:      SnapshotMessage,
		Timestamp: time.Now().UTC(),
		Tasks:     tasks,
	}
}

// ClientMessage is a message received from a websocket client.
type ClientMessage struct {
	Type WebSocketMessageType `json:"type"`
}
