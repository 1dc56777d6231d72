package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jonwraymond/employeesvc/observe"
	"github.com/jonwraymond/employeesvc/resilience"
	"github.com/jonwraymond/employeesvc/secret"
)

// Config describes the datasource.
type Config struct {
	URL      string
	Username string

	// PasswordSecret names the secret holding the password. Required.
	PasswordSecret string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectAttempts bounds the initial ping. Default: 1.
	ConnectAttempts int
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger     observe.Logger
	middleware *observe.Middleware
	retryDelay time.Duration
}

// WithLogger sets the logger used for connection and gorm messages.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMiddleware traces and measures the connect operation.
func WithMiddleware(m *observe.Middleware) Option {
	return func(o *options) { o.middleware = m }
}

// WithRetryDelay sets the initial delay between connect attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.retryDelay = d }
}

// DB is an open connection pool.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
}

// Open resolves the database password, opens the pool and pings it.
// A secret error is returned before any connection is attempted.
func Open(ctx context.Context, cfg Config, secrets secret.Getter, opts ...Option) (*DB, error) {
	o := options{logger: observe.NopLogger(), retryDelay: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.PasswordSecret == "" {
		return nil, ErrNoPasswordSecret
	}
	password, err := secrets.Resolve(ctx, cfg.PasswordSecret)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	connCfg, err := connConfig(cfg.URL, cfg.Username, password)
	if err != nil {
		return nil, err
	}

	sqlDB := stdlib.OpenDB(*connCfg)
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	connect := func(ctx context.Context) error {
		return pingWithRetry(ctx, sqlDB, cfg.ConnectAttempts, o.retryDelay, o.logger)
	}
	if o.middleware != nil {
		connect = o.middleware.Wrap(observe.Operation{
			Component: "database",
			Name:      "connect",
			Attrs:     map[string]string{"db.host": connCfg.Host, "db.name": connCfg.Database},
		}, connect)
	}
	if err := connect(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               newGormLogger(o.logger),
		DisableAutomaticPing: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database: gorm: %w", err)
	}

	o.logger.Info(ctx, "database connected",
		observe.Field{Key: "host", Value: connCfg.Host},
		observe.Field{Key: "database", Value: connCfg.Database},
		observe.Field{Key: "user", Value: connCfg.User},
	)
	return &DB{gorm: gdb, sql: sqlDB}, nil
}

// connConfig parses url and overrides its credentials.
func connConfig(url, username, password string) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig(url)
	if err != nil {
		// pgx errors can echo the url, which may embed credentials.
		return nil, ErrInvalidURL
	}
	if username != "" {
		connCfg.User = username
	}
	connCfg.Password = password
	return connCfg, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, attempts int, delay time.Duration, logger observe.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: attempts,
		Backoff:     resilience.Backoff{Initial: delay, Max: 10 * time.Second, Factor: 2, Jitter: true},
		OnRetry: func(attempt int, err error, wait time.Duration) {
			logger.Warn(ctx, "database ping failed, retrying",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay", Value: wait.String()},
				observe.Field{Key: "error", Value: err.Error()},
			)
		},
	})
	if err := retry.Execute(ctx, db.PingContext); err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return nil
}

// Gorm returns the gorm handle.
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

// Close closes the pool.
func (d *DB) Close() error { return d.sql.Close() }
