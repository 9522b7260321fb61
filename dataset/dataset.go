// Package dataset persists captured entries.
package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/ratewalk/config"
	"github.com/use-agent/ratewalk/models"
)

// Sink stores entries as they are captured.
type Sink interface {
	Write(ctx context.Context, entry *models.Entry) error
	Close() error
}

// Open returns the sink selected by cfg.
func Open(cfg config.DatasetConfig) (Sink, error) {
	switch cfg.Sink {
	case "jsonl", "":
		s, err := OpenJSONL(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("dataset: unknown sink %q", cfg.Sink)
	}
}

// Multi writes every entry to all of its sinks, in order.
type Multi []Sink

func (m Multi) Write(ctx context.Context, entry *models.Entry) error {
	for _, s := range m {
		if err := s.Write(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
