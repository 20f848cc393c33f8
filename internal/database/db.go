// Package database opens the MySQL connection pool the repositories
// share.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Settings carries the connection parameters and pool tunables for
// Open.  Zero-valued tunables fall back to the defaults below.
type Settings struct {
	User string
	Pass string // optional
	Host string
	Port string
	Name string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultPingTimeout     = 5 * time.Second
)

// dsn renders the driver connection string.  Expiry comparisons happen
// across instances, so parseTime and loc=UTC force every DATETIME to
// scan as a UTC time.Time.
func (s Settings) dsn() string {
	auth := s.User
	if s.Pass != "" {
		auth = fmt.Sprintf("%s:%s", s.User, s.Pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, s.Host, s.Port, s.Name)
}

// Open connects to MySQL, sizes the pool and verifies the connection
// before returning.
func Open(s Settings) (*sql.DB, error) {
	if s.MaxOpenConns <= 0 {
		s.MaxOpenConns = defaultMaxOpenConns
	}
	if s.MaxIdleConns <= 0 {
		s.MaxIdleConns = defaultMaxIdleConns
	}
	if s.ConnMaxLifetime <= 0 {
		s.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if s.PingTimeout <= 0 {
		s.PingTimeout = defaultPingTimeout
	}

	db, err := sql.Open("mysql", s.dsn())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(s.MaxOpenConns)
	db.SetMaxIdleConns(s.MaxIdleConns)
	db.SetConnMaxLifetime(s.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), s.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
