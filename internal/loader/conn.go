package loader

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormprom "gorm.io/plugin/prometheus"

	"github.com/omfgitsmark/mtgsqlive/internal/data"
)

// DefaultPort is used when the server address has no port.
const DefaultPort = 3306

// stringSize is the varchar length of string columns without an explicit
// size or type. 191 characters of utf8mb4 still fit an InnoDB index prefix.
const stringSize = 191

// Connection failure categories.
const (
	CategoryAuth     = "auth"
	CategoryDatabase = "database"
	CategoryNetwork  = "network"
	CategoryUnknown  = "unknown"
)

// ConnectionError is returned when the database cannot be reached or
// refuses the session. It is always fatal.
type ConnectionError struct {
	Category string
	Addr     string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("database connection failed (%s): %v", e.Category, e.Err)
	}
	return fmt.Sprintf("connection to %s failed (%s): %v", e.Addr, e.Category, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Target is the database an import writes to.
type Target struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Addr returns host:port.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// DSN returns the go-sql-driver/mysql data source name of the target.
func (t Target) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = t.User
	cfg.Passwd = t.Password
	cfg.Net = "tcp"
	cfg.Addr = t.Addr()
	cfg.DBName = t.Database
	cfg.Timeout = 10 * time.Second
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// ParseServer splits a host[:port] server address. IPv6 hosts with a port
// must be bracketed.
func ParseServer(addr string) (string, int, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", 0, errors.New("empty server address")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// No port, or a bare IPv6 address.
		if strings.Count(addr, ":") == 1 {
			return "", 0, fmt.Errorf("invalid server address %q: %w", addr, err)
		}
		return strings.Trim(addr, "[]"), DefaultPort, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid server address %q: missing host", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid server address %q: bad port %q", addr, portStr)
	}
	return host, port, nil
}

// Options configure Open.
type Options struct {
	LogLevel slog.Level
	// PoolMetrics registers the GORM connection pool metrics with the
	// default Prometheus registry.
	PoolMetrics bool
}

// Open connects to the target. The pool is limited to a single connection
// which is held for the whole run; release it with Close.
func Open(ctx context.Context, t Target, opts Options) (*gorm.DB, error) {
	slog.Info("Connecting to MySQL", "addr", t.Addr(), "database", t.Database, "user", t.User)

	gormConfig := &gorm.Config{
		Logger: data.NewQueryLogger(opts.LogLevel, 200*time.Millisecond),
	}
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		DSN:               t.DSN(),
		DefaultStringSize: stringSize,
	}), gormConfig)
	if err != nil {
		return nil, &ConnectionError{Category: Classify(err), Addr: t.Addr(), Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &ConnectionError{Category: CategoryUnknown, Addr: t.Addr(), Err: err}
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		Close(db)
		return nil, &ConnectionError{Category: Classify(err), Addr: t.Addr(), Err: err}
	}

	if opts.PoolMetrics {
		if err := db.Use(gormprom.New(gormprom.Config{
			DBName:          t.Database,
			RefreshInterval: 15,
			StartServer:     false,
		})); err != nil {
			slog.Warn("Failed to register GORM prometheus plugin", "error", err)
		}
	}

	return db, nil
}

// Close releases the connection. Errors are logged.
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get database handle", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// Classify sorts a connection failure into a category.
func Classify(err error) string {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045, 1698:
			return CategoryAuth
		case 1049:
			return CategoryDatabase
		}
		return CategoryUnknown
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, context.DeadlineExceeded):
		return CategoryNetwork
	}
	return CategoryUnknown
}

// isConnectionLoss reports whether err means the session itself is gone, as
// opposed to a statement failing.
func isConnectionLoss(err error) bool {
	return Classify(err) == CategoryNetwork
}
