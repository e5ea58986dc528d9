package store

import (
	"context"

	"github.com/backyonatan-alt/lookout/internal/model"
)

// Store is the repository interface for the alert journal.
type Store interface {
	// SaveAlert appends one operator alert.
	SaveAlert(ctx context.Context, rec model.AlertRecord) error
	// RecentAlerts returns up to limit alerts, newest first.
	RecentAlerts(ctx context.Context, limit int) ([]model.AlertRecord, error)
	// Migrate prepares the backing storage.
	Migrate(ctx context.Context) error
}
