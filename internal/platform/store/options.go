package store

import (
	"errors"

	"mdms/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithMemory installs an in process TxRunner in place of postgres
// Open skips the postgres dial when this option is present
func WithMemory(tx TxRunner) Option {
	return func(s *Store) error {
		if tx == nil {
			return errors.New("store: nil memory runner")
		}
		s.PG = tx
		s.Memory = true
		return nil
	}
}
