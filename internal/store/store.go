// Package store is the single-file relational persistence layer. Every
// exported write runs in one transaction; callers that need several writes to
// commit together use Transaction and call the same methods on the tx handle.
package store

import (
	"context"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/db"
)

type Store struct {
	db   *gorm.DB
	path string
	inTx bool
}

// New wraps an already opened connection.
func New(conn *gorm.DB, path string) *Store {
	return &Store{db: conn, path: path}
}

// Open opens the store file at path.
func Open(path string, busyTimeout time.Duration, log zerolog.Logger) (*Store, error) {
	conn, err := db.Open(path, busyTimeout, log)
	if err != nil {
		return nil, fail(err, "open store", path)
	}
	return New(conn, path), nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Path is the store file on disk.
func (s *Store) Path() string { return s.path }

// Conn exposes the gorm handle bound to ctx, for read-only queries the typed
// API does not cover.
func (s *Store) Conn(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

// Transaction runs fn against a transactional handle. Any error rolls the whole
// operation back. Cancellation is only honoured before the transaction starts.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, path: s.path, inTx: true})
	})
	return fail(err, "transaction", "")
}

// Snapshot runs read-only fn under a single read transaction so it sees a
// consistent view of the store.
func (s *Store) Snapshot(ctx context.Context, fn func(tx *Store) error) error {
	return s.Transaction(ctx, fn)
}

// atomic runs fn in a transaction unless s already is one.
func (s *Store) atomic(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.Transaction(ctx, fn)
}

// fail classifies err: typed errors pass through, sqlite lock contention
// becomes Busy, anything else a Store error naming the operation.
func fail(err error, op, subject string) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != apperr.Unknown {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return apperr.New(apperr.Busy, errors.Wrap(apperr.ErrBusy, op), subject)
		case sqlite3.ErrConstraint:
			return apperr.New(apperr.Conflict, errors.Wrap(err, op), subject)
		}
	}
	return apperr.New(apperr.Store, errors.Wrap(err, op), subject)
}

func notFound(err error, sentinel error, op, subject string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.NotFound, sentinel, subject)
	}
	return fail(err, op, subject)
}
