package websocket

import (
	"time"

	"projectpulse/pkg/contracts/domain"
	"projectpulse/pkg/contracts/events"
)

// Broadcaster is the part of Hub the notifier needs.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// RefreshNotifier forwards refresh outcomes to dashboards. It satisfies
// services.Notifier.
type RefreshNotifier struct {
	hub Broadcaster
	now func() time.Time
}

// NewRefreshNotifier creates a notifier over hub.
func NewRefreshNotifier(hub Broadcaster) *RefreshNotifier {
	return &RefreshNotifier{hub: hub, now: time.Now}
}

// RefreshCompleted broadcasts data_update.
func (n *RefreshNotifier) RefreshCompleted(info domain.RefreshInfo, kpis domain.DashboardKPIs) {
	n.hub.Broadcast(events.TypeDataUpdate, events.DataUpdate{Refresh: info, KPIs: kpis})
}

// RefreshFailed broadcasts refresh_error.
func (n *RefreshNotifier) RefreshFailed(err error) {
	n.hub.Broadcast(events.TypeRefreshError, events.RefreshError{
		Message:  err.Error(),
		FailedAt: n.now().UTC(),
	})
}
