package sqlstore

import (
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/repositories"
)

// Factory implements repositories.Factory
type Factory struct {
	logger *logrus.Logger
}

// NewFactory creates a new repository factory
func NewFactory(logger *logrus.Logger) repositories.Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{
		logger: logger,
	}
}

// CreateProjectRepository creates a project repository
func (f *Factory) CreateProjectRepository(db *sql.DB) repositories.ProjectRepository {
	return NewProjectRepository(db, f.logger)
}

// CreateViewCountRepository creates a view count repository
func (f *Factory) CreateViewCountRepository(db *sql.DB) repositories.ViewCountRepository {
	return NewViewCountRepository(db, f.logger)
}
