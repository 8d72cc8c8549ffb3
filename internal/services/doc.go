// Package services holds the dashboard's business layer between the HTTP
// handlers and the data sources.
//
// DashboardService owns the current project set. A refresh fetches the sheet,
// normalizes every row with a single reference time and swaps the result in
// atomically; readers always see one complete refresh, never a mix. A failed
// refresh leaves the previous data in place.
//
// Typical wiring:
//
//	svc, err := services.NewDashboardService(services.DashboardOptions{
//	    Source:     src,
//	    Normalizer: dataprocessing.NewNormalizer(cfg),
//	    Store:      snapshots,
//	    Notifier:   ws.NewRefreshNotifier(hub, logger),
//	    Interval:   5 * time.Minute,
//	    Logger:     logger,
//	})
//	svc.Start(ctx)
//
// HealthService reports liveness and readiness; the service is ready once
// any data, fetched or restored, is available.
package services
