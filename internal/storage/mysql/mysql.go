package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"laser-offers/internal/config"
	"laser-offers/internal/storage"
)

type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, cfg config.Database) (*Storage, error) {
	const op = "storage.mysql.New"

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an already opened pool.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func DSN(cfg config.Database) string {
	c := mysql.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
	c.DBName = cfg.DBName
	c.ParseTime = cfg.ParseTime
	// RowsAffected reports matched rows, so an update with unchanged values is not "not found".
	c.ClientFoundRows = true

	return c.FormatDSN()
}

// classify maps driver errors onto the storage sentinels.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062:
			return fmt.Errorf("%w: %s", storage.ErrDuplicate, mysqlErr.Message)
		case 1452:
			return fmt.Errorf("%w: %s", storage.ErrReference, mysqlErr.Message)
		}
	}

	return err
}
