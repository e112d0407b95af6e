package repositories

import (
	"context"

	"github.com/theodoremoreland/ViewCountAPI/internal/models"
)

// ProjectRepository defines operations on the project table
type ProjectRepository interface {
	// Create inserts one project and returns the stored row
	Create(ctx context.Context, id, name string) (*models.Project, error)

	// CreateBatch inserts all entries in one statement, skipping ids that
	// already exist. Returned rows follow the order of entries.
	CreateBatch(ctx context.Context, entries []models.ProjectEntry) ([]*models.Project, error)
}

// ViewCountRepository defines operations on the view_count table
type ViewCountRepository interface {
	// List returns every view_count row
	List(ctx context.Context) ([]models.ViewCount, error)

	// Increment adds one to a single counter and returns the updated row
	Increment(ctx context.Context, projectID string, counter models.ViewCounter) (*models.ViewCount, error)
}
