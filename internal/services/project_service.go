package services

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/database"
	"github.com/theodoremoreland/ViewCountAPI/internal/models"
	"github.com/theodoremoreland/ViewCountAPI/internal/repositories"
)

// projectService implements ProjectService
type projectService struct {
	opener database.Opener
	repos  repositories.Factory
	logger *logrus.Logger
}

// NewProjectService creates a new project service
func NewProjectService(opener database.Opener, repos repositories.Factory, logger *logrus.Logger) ProjectService {
	return &projectService{
		opener: opener,
		repos:  repos,
		logger: logger,
	}
}

// AddProject inserts a single project
func (s *projectService) AddProject(ctx context.Context, req *models.AddProjectRequest) (*models.Project, error) {
	var project *models.Project
	err := database.WithConnection(ctx, s.opener, s.logger, func(db *sql.DB) error {
		var err error
		project, err = s.repos.CreateProjectRepository(db).Create(ctx, req.ProjectID, req.ProjectName)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("project_id", project.ID).Info("Project added")
	return project, nil
}

// RegisterProjects inserts a batch of projects in one statement
func (s *projectService) RegisterProjects(ctx context.Context, entries []models.ProjectEntry) ([]*models.Project, error) {
	var projects []*models.Project
	err := database.WithConnection(ctx, s.opener, s.logger, func(db *sql.DB) error {
		var err error
		projects, err = s.repos.CreateProjectRepository(db).CreateBatch(ctx, entries)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"requested": len(entries),
		"inserted":  len(projects),
	}).Info("Projects registered")
	return projects, nil
}
