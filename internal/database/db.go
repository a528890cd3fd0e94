package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// migrations
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // Pure Go sqlite driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"macro-meal-planner/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Options selects and locates the database.
type Options struct {
	Driver   string // config.DriverSQLite or config.DriverPostgres
	Name     string // file path for sqlite, database name for postgres
	User     string
	Host     string
	Password string
	Port     int
}

// OptionsFromConfig maps the application config onto database options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Driver:   cfg.DBDriver,
		Name:     cfg.DBName,
		User:     cfg.DBUser,
		Host:     cfg.DBHost,
		Password: cfg.DBPassword,
		Port:     cfg.DBPort,
	}
}

// DB provides a centralized database connection
type DB struct {
	SQL    *sql.DB
	driver string
	logger *zap.Logger
}

// NewSQLite opens (creating if needed) the SQLite database at path.
func NewSQLite(path string, logger *zap.Logger) (*DB, error) {
	return NewDB(Options{Driver: config.DriverSQLite, Name: path}, logger)
}

// NewDB initializes the database and runs migrations.
func NewDB(opts Options, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var driverName, dsn, migrateURL string
	switch opts.Driver {
	case config.DriverSQLite, "":
		if opts.Name == "" {
			return nil, errors.New("sqlite database path is empty")
		}
		// Ensure directory exists
		if dir := filepath.Dir(opts.Name); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		opts.Driver = config.DriverSQLite
		driverName = "sqlite"
		dsn = opts.Name
		// Migrate expects a URL-like string: "sqlite://<path_to_db>"
		migrateURL = fmt.Sprintf("sqlite://%s", opts.Name)
	case config.DriverPostgres:
		driverName = "pgx"
		dsn = postgresURL("postgres", opts)
		migrateURL = postgresURL("pgx5", opts)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	// Run migrations before opening the database connection for the app
	// This ensures the schema is always up-to-date
	if err := RunMigrations(opts.Driver, migrateURL, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.Driver == config.DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{SQL: db, driver: opts.Driver, logger: logger}, nil
}

// Driver reports which dialect the connection speaks.
func (d *DB) Driver() string {
	return d.driver
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.SQL.Close()
}

// RunMigrations applies the embedded migrations for driver using golang-migrate.
func RunMigrations(driver, databaseURL string, logger *zap.Logger) error {
	d, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	// Apply all available migrations
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Debug("database migrations applied", zap.String("driver", driver))
	return nil
}

func postgresURL(scheme string, opts Options) string {
	port := opts.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(opts.User, opts.Password),
		Host:     net.JoinHostPort(opts.Host, strconv.Itoa(port)),
		Path:     "/" + opts.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
