package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/secrets"
)

// ErrConnection is wrapped by every failure to obtain a usable connection.
var ErrConnection = errors.New("database connection failed")

// ConnectionConfig holds database connection configuration
type ConnectionConfig struct {
	Driver         string
	DatabaseName   string
	SSLMode        string
	ConnectTimeout time.Duration
	DatabasePath   string
	Logger         *logrus.Logger
}

// DefaultConnectionConfig returns a default configuration
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Driver:         DriverPostgres,
		DatabaseName:   "metadata",
		SSLMode:        "require",
		ConnectTimeout: 5 * time.Second,
		DatabasePath:   "./data/metadata.db",
		Logger:         logrus.New(),
	}
}

// Opener hands out a database handle for a single invocation. The caller
// owns the handle and must close it.
type Opener interface {
	Open(ctx context.Context) (*sql.DB, error)
}

// Connector opens one connection per call using freshly fetched credentials.
type Connector struct {
	config      *ConnectionConfig
	credentials secrets.CredentialProvider
	factory     *ConnectionFactory
}

// NewConnector creates a new connector
func NewConnector(config *ConnectionConfig, credentials secrets.CredentialProvider) *Connector {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &Connector{
		config:      config,
		credentials: credentials,
		factory:     NewConnectionFactory(config.Logger),
	}
}

// Open fetches credentials (for network drivers) and opens a connection.
func (c *Connector) Open(ctx context.Context) (*sql.DB, error) {
	var creds *secrets.DBCredentials
	if !IsFileDriver(c.config.Driver) {
		if c.credentials == nil {
			return nil, fmt.Errorf("%w: no credential provider configured", ErrConnection)
		}
		var err error
		creds, err = c.credentials.Credentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnection, err)
		}
	}

	db, err := c.factory.CreateConnection(ctx, c.config, creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return db, nil
}

// WithConnection acquires a connection, runs fn, and releases the connection
// on every path.
func WithConnection(ctx context.Context, opener Opener, logger *logrus.Logger, fn func(db *sql.DB) error) error {
	db, err := opener.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && logger != nil {
			logger.WithError(cerr).Warn("Failed to close database connection")
		}
	}()

	return fn(db)
}
