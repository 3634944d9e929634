// Package source opens sessions against the Oracle database being exported.
package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
	go_ora "github.com/sijms/go-ora/v2"
)

// DriverName is the database/sql driver registered by go-ora
const DriverName = "oracle"

// Connector opens a new, independent session. Every call returns a handle
// the caller owns and must Close.
type Connector interface {
	Connect(ctx context.Context) (*sql.DB, error)
}

// OracleConnector connects through the pure-Go go-ora driver
type OracleConnector struct {
	cfg    config.SourceConfig
	logger zerolog.Logger
}

func NewOracleConnector(cfg config.SourceConfig, logger zerolog.Logger) (*OracleConnector, error) {
	if cfg.Host == "" || cfg.ServiceName == "" {
		return nil, errors.New(ErrSourceConfigInvalid, "source host and service_name are required", nil).
			AddContext("host", cfg.Host).
			AddContext("service_name", cfg.ServiceName)
	}
	if cfg.Port == 0 {
		cfg.Port = config.DEFAULT_ORACLE_PORT
	}
	return &OracleConnector{
		cfg:    cfg,
		logger: logger.With().Str("component", "source").Logger(),
	}, nil
}

// Connect opens a single-connection pool and verifies it with a ping
func (c *OracleConnector) Connect(ctx context.Context) (*sql.DB, error) {
	url := go_ora.BuildUrl(c.cfg.Host, c.cfg.Port, c.cfg.ServiceName, c.cfg.Username, c.cfg.Password, c.cfg.Options)

	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, c.connectionError(err)
	}

	// One worker, one session
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, c.connectionError(err)
	}

	c.logger.Debug().Str("address", c.Address()).Msg("Oracle session opened")
	return db, nil
}

// Address is the connection target without credentials, for logs
func (c *OracleConnector) Address() string {
	return fmt.Sprintf("%s:%d/%s", c.cfg.Host, c.cfg.Port, c.cfg.ServiceName)
}

func (c *OracleConnector) connectionError(err error) error {
	return errors.New(ErrConnectionFailed, "failed to connect to Oracle", err).
		AddContext("address", c.Address()).
		AddContext("username", c.cfg.Username)
}

// Release closes a session handle, logging instead of failing
func Release(db *sql.DB, logger zerolog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn().Err(errors.New(ErrSessionCloseFailed, "failed to close session", err)).Msg("Session release failed")
	}
}
