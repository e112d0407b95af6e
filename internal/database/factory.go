package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/theodoremoreland/ViewCountAPI/internal/secrets"
)

// Supported drivers. Each name is also the database/sql driver name.
const (
	DriverPostgres      = "postgres"
	DriverPgx           = "pgx"
	DriverSQLite        = "sqlite3"
	DriverSQLitePureGo  = "sqlite"
	defaultPostgresPort = 5432
)

// SupportedDrivers lists the accepted values for the driver setting.
var SupportedDrivers = []string{DriverPostgres, DriverPgx, DriverSQLite, DriverSQLitePureGo}

// IsSupportedDriver reports whether driver is one of SupportedDrivers.
func IsSupportedDriver(driver string) bool {
	for _, d := range SupportedDrivers {
		if d == driver {
			return true
		}
	}
	return false
}

// IsFileDriver reports whether driver opens a local file instead of a server.
func IsFileDriver(driver string) bool {
	return driver == DriverSQLite || driver == DriverSQLitePureGo
}

// ConnectionFactory creates database connections
type ConnectionFactory struct {
	logger *logrus.Logger
}

// NewConnectionFactory creates a new connection factory
func NewConnectionFactory(logger *logrus.Logger) *ConnectionFactory {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConnectionFactory{
		logger: logger,
	}
}

// CreateConnection opens and pings a single-connection handle.
func (f *ConnectionFactory) CreateConnection(ctx context.Context, config *ConnectionConfig, creds *secrets.DBCredentials) (*sql.DB, error) {
	switch config.Driver {
	case DriverPostgres, DriverPgx:
		if creds == nil {
			return nil, fmt.Errorf("credentials are required for driver %s", config.Driver)
		}
		return f.open(ctx, config.Driver, BuildPostgresDSN(config, creds), logrus.Fields{
			"driver": config.Driver,
			"host":   creds.Host,
			"dbname": databaseName(config, creds),
		})
	case DriverSQLite, DriverSQLitePureGo:
		path, err := ensureDatabasePath(config.DatabasePath)
		if err != nil {
			return nil, err
		}
		return f.open(ctx, config.Driver, BuildSQLiteDSN(config.Driver, path), logrus.Fields{
			"driver":  config.Driver,
			"db_path": path,
		})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Driver)
	}
}

func (f *ConnectionFactory) open(ctx context.Context, driver, dsn string, fields logrus.Fields) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One invocation, one connection; nothing is kept idle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	f.logger.WithFields(fields).Debug("Database connection established")
	return db, nil
}

// BuildPostgresDSN builds a URL-style DSN understood by both lib/pq and pgx.
func BuildPostgresDSN(config *ConnectionConfig, creds *secrets.DBCredentials) string {
	port := int(creds.Port)
	if port == 0 {
		port = defaultPostgresPort
	}

	q := url.Values{}
	if config.SSLMode != "" {
		q.Set("sslmode", config.SSLMode)
	}
	if config.ConnectTimeout > 0 {
		secs := int(config.ConnectTimeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(creds.Username, creds.Password),
		Host:     net.JoinHostPort(creds.Host, strconv.Itoa(port)),
		Path:     "/" + databaseName(config, creds),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// BuildSQLiteDSN builds a DSN with foreign keys and a busy timeout enabled.
func BuildSQLiteDSN(driver, path string) string {
	if driver == DriverSQLitePureGo {
		return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

func databaseName(config *ConnectionConfig, creds *secrets.DBCredentials) string {
	if config.DatabaseName != "" {
		return config.DatabaseName
	}
	if creds != nil && creds.DBName != "" {
		return creds.DBName
	}
	return "metadata"
}

func ensureDatabasePath(path string) (string, error) {
	if path == "" {
		path = "./data/metadata.db"
	}
	if path == ":memory:" {
		return path, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return absPath, nil
}

// HealthChecker provides health checking capabilities for database connections
type HealthChecker struct {
	opener Opener
	logger *logrus.Logger
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(opener Opener, logger *logrus.Logger) *HealthChecker {
	if logger == nil {
		logger = logrus.New()
	}
	return &HealthChecker{
		opener: opener,
		logger: logger,
	}
}

// CheckHealth opens a connection and runs a trivial query.
func (h *HealthChecker) CheckHealth(ctx context.Context) error {
	start := time.Now()
	defer func() {
		h.logger.WithField("duration", time.Since(start)).Debug("Health check completed")
	}()

	return WithConnection(ctx, h.opener, h.logger, func(db *sql.DB) error {
		var result int
		if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("test query failed: %w", err)
		}
		if result != 1 {
			return fmt.Errorf("test query returned unexpected result: %d", result)
		}
		return nil
	})
}
