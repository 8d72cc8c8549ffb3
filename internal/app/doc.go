// Package app wires the project dashboard together and owns its lifecycle.
//
// New builds every component from a config.Config: the spreadsheet source,
// the snapshot store, the dashboard service with its refresh loop, the
// WebSocket hub that pushes refresh notifications, the exporter and the chi
// router. Start launches the background pieces and the HTTP server; Stop
// tears them down in reverse order.
//
// Routes:
//
//	/ws              refresh notifications
//	/metrics         Prometheus scrape endpoint
//	/api/...         JSON API, see package http
//
// Typical use from main:
//
//	application, err := app.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
package app
