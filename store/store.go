// Package store is the gorm-backed persistence layer.
package store

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

// Store wraps a gorm handle. The zero value is not usable; use New.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(sqlDB.PingContext(ctx), "ping database")
}

// translate maps gorm sentinel errors onto the juju/errors taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.NewNotFound(nil, what+" not found")
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return errors.NewAlreadyExists(nil, what+" already exists")
	}
	return errors.Annotatef(err, "%s", what)
}

// isUniqueViolation catches drivers that do not implement gorm's error
// translation.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
