// Package repository defines the performance record store interface and
// its in-memory and BoltDB implementations.
package repository

import (
	"context"

	"github.com/okian/wicket/internal/domain/model"
)

// Store provides read/write access to performance records.
// FindAll returns records in creation order.
type Store interface {
	// FindAll returns every stored record.
	FindAll(ctx context.Context) ([]model.PerformanceRecord, error)

	// FindByID returns the record with id.
	// Returns ErrNotFound if the id is unknown.
	FindByID(ctx context.Context, id string) (model.PerformanceRecord, error)

	// Save inserts rec when rec.ID is empty, assigning a new id, and
	// replaces the stored record otherwise. Returns the stored record.
	// Returns ErrNotFound when replacing an id that is not stored.
	Save(ctx context.Context, rec model.PerformanceRecord) (model.PerformanceRecord, error)

	// ExistsByID reports whether id is stored.
	ExistsByID(ctx context.Context, id string) (bool, error)

	// DeleteByID removes the record with id.
	// Returns ErrNotFound if the id is unknown.
	DeleteByID(ctx context.Context, id string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Close releases underlying resources.
	Close() error
}
