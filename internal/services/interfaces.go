package services

import (
	"context"

	"github.com/theodoremoreland/ViewCountAPI/internal/models"
)

// ProjectService defines project registration operations
type ProjectService interface {
	// AddProject inserts a single project
	AddProject(ctx context.Context, req *models.AddProjectRequest) (*models.Project, error)

	// RegisterProjects inserts a batch, skipping ids that already exist.
	// Returns repositories.ErrConflict when nothing was inserted.
	RegisterProjects(ctx context.Context, entries []models.ProjectEntry) ([]*models.Project, error)
}

// ViewCountService defines view counter operations
type ViewCountService interface {
	// GetViewCounts returns every project's counters keyed by project id
	GetViewCounts(ctx context.Context) (models.ViewCountsByProject, error)

	// IncrementViewCount bumps one counter of one project.
	// Returns repositories.ErrNotFound when the project has no row.
	IncrementViewCount(ctx context.Context, req *models.IncrementViewCountRequest) (*models.ViewCount, error)
}
