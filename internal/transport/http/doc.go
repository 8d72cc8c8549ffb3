// Package http implements the read-only JSON API of the dashboard.
//
// Handlers are thin: they parse and validate query parameters, call the
// dashboard service and render the result. Successful responses share the
// envelope
//
//	{"status": "success", "data": ..., "count": n}
//
// and every error is written as RFC 7807 Problem Details by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/not-ready",
//	    "title": "Service Unavailable",
//	    "status": 503,
//	    "detail": "Project data has not been loaded yet",
//	    "instance": "/api/projects"
//	}
//
// Routes:
//
//	GET  /projects                 filtered by person, client, status; by deadline
//	GET  /projects/{id}
//	GET  /summary
//	GET  /kpis
//	GET  /aggregates/{view}        team, types, statuses, monthly, clients, critical, people
//	POST /refresh
//	GET  /refresh/last
//	GET  /export/{format}          xlsx, csv, json
//	GET  /health, /health/ready, /health/live, /version
package http
