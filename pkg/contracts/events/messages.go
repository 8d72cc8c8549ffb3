// Package events defines the messages pushed to dashboards over WebSocket.
package events

import (
	"time"

	"projectpulse/pkg/contracts/domain"
)

// Message types sent by the server.
const (
	TypeConnection   = "connection"
	TypeDataUpdate   = "data_update"
	TypeRefreshError = "refresh_error"
	TypeHeartbeat    = "heartbeat"
)

// Message is the envelope of every server push.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// NewMessage stamps a message with the current time.
func NewMessage(msgType string, data interface{}) Message {
	return Message{Type: msgType, Data: data, Timestamp: time.Now().UTC()}
}

// ConnectionData greets a freshly registered client.
type ConnectionData struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// DataUpdate tells dashboards that new project data is available.
type DataUpdate struct {
	Refresh domain.RefreshInfo    `json:"refresh"`
	KPIs    domain.DashboardKPIs `json:"kpis"`
}

// RefreshError tells dashboards that the last refresh failed. The data they
// show is still the previous good one.
type RefreshError struct {
	Message  string    `json:"message"`
	FailedAt time.Time `json:"failed_at"`
}
