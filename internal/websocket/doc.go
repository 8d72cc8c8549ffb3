// Package websocket pushes refresh notifications to connected dashboards.
//
// A Hub owns the set of clients and fans out messages; each Client runs a
// read pump (keepalive only, inbound payloads are ignored) and a write pump.
// RefreshNotifier adapts the hub to the dashboard service's Notifier.
package websocket
