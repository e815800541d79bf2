// Package config loads the application configuration from environment
// variables, applying defaults and validating every setting on startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Backend names accepted in SHEETQUEUE_BACKEND.
const (
	BackendWorkbook     = "xlsx"
	BackendSQLite       = "sqlite"
	BackendPostgres     = "postgres"
	BackendGoogleSheets = "gsheets"
	BackendMemory       = "memory"
)

// Config holds all application configuration.
type Config struct {
	Store   StoreConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// StoreConfig selects and configures the document backend.
type StoreConfig struct {
	// Backend is one of xlsx, sqlite, postgres, gsheets, memory (default: xlsx)
	Backend string `env:"SHEETQUEUE_BACKEND" default:"xlsx"`

	// WorkbookPath is the .xlsx file used by the xlsx backend
	WorkbookPath string `env:"SHEETQUEUE_WORKBOOK" default:"sheetqueue.xlsx"`

	// SQLitePath is the database file used by the sqlite backend
	SQLitePath string `env:"SHEETQUEUE_SQLITE_PATH" default:"sheetqueue.db"`

	// DatabaseURL is the PostgreSQL connection string for the postgres backend
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SheetURL is the Google Sheets document URL for the gsheets backend
	SheetURL string `env:"DATABASE_SHEET_URL"`

	// CredentialsFile is a service account key for the gsheets backend.
	// When empty, application default credentials are used.
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envAlt:"GOOGLE_APPLICATION_CREDENTIALS"`

	// HeaderPolicy is append or recreate (default: append)
	HeaderPolicy string `env:"SHEETQUEUE_HEADER_POLICY" default:"append"`

	// ScanWidth is the number of header cells inspected (default: 26)
	ScanWidth int `env:"SHEETQUEUE_HEADER_SCAN_WIDTH" default:"26"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds the backend work of a single request (default: 20s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"20s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
