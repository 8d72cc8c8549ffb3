// Package config loads the service configuration.
//
// Values are resolved in order of precedence:
//
//	1. Environment variables (PULSE_*)
//	2. YAML configuration file
//	3. Built-in defaults
//
// Environment variables follow the nested struct layout, for example:
//
//	PULSE_SERVER_PORT=8080
//	PULSE_SHEETS_SPREADSHEET_ID=1AbC...
//	PULSE_SHEETS_CREDENTIALS_FILE=credentials.json
//	PULSE_DASHBOARD_CRITICAL_DAYS=7
//	PULSE_DASHBOARD_REFRESH_INTERVAL=5m
//	PULSE_SNAPSHOT_STORE=redis
//
// The YAML file is looked up from PULSE_CONFIG_FILE, then config.yaml and
// configs/config.yaml in the working directory.
//
// Load validates the result; Default returns a configuration usable in tests
// without any environment.
package config
