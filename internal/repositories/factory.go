package repositories

import (
	"database/sql"
)

// Factory creates repository implementations bound to one connection
type Factory interface {
	// CreateProjectRepository creates a project repository
	CreateProjectRepository(db *sql.DB) ProjectRepository

	// CreateViewCountRepository creates a view count repository
	CreateViewCountRepository(db *sql.DB) ViewCountRepository
}
