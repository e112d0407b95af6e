package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/database"
	"github.com/theodoremoreland/ViewCountAPI/internal/repositories"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	ProjectService   ProjectService
	ViewCountService ViewCountService
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(opener database.Opener, repos repositories.Factory, logger *logrus.Logger) (*ServiceContainer, error) {
	if opener == nil {
		return nil, fmt.Errorf("database opener cannot be nil")
	}
	if repos == nil {
		return nil, fmt.Errorf("repository factory cannot be nil")
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &ServiceContainer{
		ProjectService:   NewProjectService(opener, repos, logger),
		ViewCountService: NewViewCountService(opener, repos, logger),
	}, nil
}
