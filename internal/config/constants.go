package config

import "time"

// Application constants
const (
	AppName = "Project Pulse"

	EnvPrefix     = "PULSE"
	EnvConfigFile = "PULSE_CONFIG_FILE"

	// Sheet defaults
	DefaultSheetName = "Hoja 1"
	DefaultRange     = "A:Z"

	// Dashboard defaults
	DefaultCriticalDays    = 7
	DefaultRefreshInterval = 5 * time.Minute
	MinRefreshInterval     = 10 * time.Second
	DefaultLocale          = "es-ES"
	DefaultCurrency        = "EUR"
	DefaultPersonColumn    = "PROJECT"
	DefaultFetchTimeout    = 30 * time.Second

	// Snapshot stores
	SnapshotStoreNone  = "none"
	SnapshotStoreFile  = "file"
	SnapshotStoreRedis = "redis"
	DefaultRedisKey    = "projectpulse:snapshot"

	// Sources
	SourceSheets   = "sheets"
	SourceWorkbook = "workbook"

	// Trace exporters
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"

	// Paths (relative to the base directory)
	DefaultDataDir      = "data"
	DefaultLogsDir      = "logs"
	DefaultReportsDir   = "data/reports"
	DefaultSnapshotFile = "data/snapshot.json"

	// API endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
