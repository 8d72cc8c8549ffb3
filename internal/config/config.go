package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Snapshot  SnapshotConfig  `yaml:"snapshot" envconfig:"SNAPSHOT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"min=1"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
}

// SheetsConfig describes where project rows come from
type SheetsConfig struct {
	Source          string        `yaml:"source" envconfig:"SOURCE" validate:"oneof=sheets workbook"`
	SpreadsheetID   string        `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID" validate:"required_if=Source sheets"`
	SheetName       string        `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required"`
	Range           string        `yaml:"range" envconfig:"RANGE" validate:"required"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	WorkbookPath    string        `yaml:"workbook_path" envconfig:"WORKBOOK_PATH" validate:"required_if=Source workbook"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
}

// A1Range returns the sheet-qualified range, e.g. "Hoja 1!A:Z".
func (s SheetsConfig) A1Range() string {
	name := s.SheetName
	if strings.ContainsAny(name, " !'") {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name + "!" + s.Range
}

// DashboardConfig contains the business rules of the dashboard
type DashboardConfig struct {
	CriticalDays    int           `yaml:"critical_days" envconfig:"CRITICAL_DAYS" validate:"min=0"`
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL"`
	Locale          string        `yaml:"locale" envconfig:"LOCALE" validate:"required"`
	Currency        string        `yaml:"currency" envconfig:"CURRENCY" validate:"required,len=3"`
	PersonColumn    string        `yaml:"person_column" envconfig:"PERSON_COLUMN" validate:"required"`
}

// SnapshotConfig configures persistence of the last good fetch
type SnapshotConfig struct {
	Store         string        `yaml:"store" envconfig:"STORE" validate:"oneof=none file redis"`
	FilePath      string        `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_if=Store file"`
	RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR" validate:"required_if=Store redis"`
	RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB" validate:"gte=0"`
	RedisKey      string        `yaml:"redis_key" envconfig:"REDIS_KEY"`
	TTL           time.Duration `yaml:"ttl" envconfig:"TTL"`
}

// TelemetryConfig configures OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment, in that order.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML file. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyDefaults fills values that may have been blanked by the file or env.
func (c *Config) applyDefaults() {
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = DefaultSheetName
	}
	if c.Sheets.Range == "" {
		c.Sheets.Range = DefaultRange
	}
	if c.Dashboard.PersonColumn == "" {
		c.Dashboard.PersonColumn = DefaultPersonColumn
	}
	if c.Snapshot.RedisKey == "" {
		c.Snapshot.RedisKey = DefaultRedisKey
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "projectpulse"
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Dashboard.RefreshInterval != 0 && c.Dashboard.RefreshInterval < MinRefreshInterval {
		return fmt.Errorf("refresh interval %s is below the minimum of %s", c.Dashboard.RefreshInterval, MinRefreshInterval)
	}

	if c.Sheets.Source == SourceSheets && c.Sheets.CredentialsFile == "" && c.Sheets.APIKey == "" {
		return fmt.Errorf("sheets source needs a credentials file or an API key")
	}

	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q needs a file path", c.Logging.Output)
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" if none
func getConfigFilePath() string {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			LogsDir:    DefaultLogsDir,
			ReportsDir: DefaultReportsDir,
		},
		Sheets: SheetsConfig{
			Source:       SourceSheets,
			SheetName:    DefaultSheetName,
			Range:        DefaultRange,
			FetchTimeout: DefaultFetchTimeout,
		},
		Dashboard: DashboardConfig{
			CriticalDays:    DefaultCriticalDays,
			RefreshInterval: DefaultRefreshInterval,
			Locale:          DefaultLocale,
			Currency:        DefaultCurrency,
			PersonColumn:    DefaultPersonColumn,
		},
		Snapshot: SnapshotConfig{
			Store:    SnapshotStoreNone,
			FilePath: DefaultSnapshotFile,
			RedisKey: DefaultRedisKey,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "projectpulse",
			MetricsEnabled: true,
			TraceExporter:  TraceExporterNone,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
