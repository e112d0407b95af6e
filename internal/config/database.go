package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/database"
	"github.com/theodoremoreland/ViewCountAPI/internal/secrets"
)

// DatabaseConfig holds database-specific configuration. Host, Port, User and
// Password are only read when secrets come from the environment.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	Name           string        `mapstructure:"name"`
	SSLMode        string        `mapstructure:"sslmode"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Path           string        `mapstructure:"path"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
}

// Validate validates the database configuration
func (c *DatabaseConfig) Validate() error {
	if !database.IsSupportedDriver(c.Driver) {
		return fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	if database.IsFileDriver(c.Driver) && c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout cannot be negative")
	}

	return nil
}

// ToConnectionConfig converts DatabaseConfig to database.ConnectionConfig
func (c *DatabaseConfig) ToConnectionConfig(logger *logrus.Logger) *database.ConnectionConfig {
	return &database.ConnectionConfig{
		Driver:         c.Driver,
		DatabaseName:   c.Name,
		SSLMode:        c.SSLMode,
		ConnectTimeout: c.ConnectTimeout,
		DatabasePath:   c.Path,
		Logger:         logger,
	}
}

// StaticCredentials returns the credentials configured in the environment.
func (c *DatabaseConfig) StaticCredentials() secrets.DBCredentials {
	return secrets.DBCredentials{
		Host:     c.Host,
		Username: c.User,
		Password: c.Password,
		Port:     secrets.Port(c.Port),
		DBName:   c.Name,
	}
}
