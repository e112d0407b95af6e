package services

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/database"
	"github.com/theodoremoreland/ViewCountAPI/internal/models"
	"github.com/theodoremoreland/ViewCountAPI/internal/repositories"
)

// viewCountService implements ViewCountService
type viewCountService struct {
	opener database.Opener
	repos  repositories.Factory
	logger *logrus.Logger
}

// NewViewCountService creates a new view count service
func NewViewCountService(opener database.Opener, repos repositories.Factory, logger *logrus.Logger) ViewCountService {
	return &viewCountService{
		opener: opener,
		repos:  repos,
		logger: logger,
	}
}

// GetViewCounts returns all counters keyed by project id
func (s *viewCountService) GetViewCounts(ctx context.Context) (models.ViewCountsByProject, error) {
	var rows []models.ViewCount
	err := database.WithConnection(ctx, s.opener, s.logger, func(db *sql.DB) error {
		var err error
		rows, err = s.repos.CreateViewCountRepository(db).List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return models.SummarizeViewCounts(rows), nil
}

// IncrementViewCount bumps the counter selected by the request flags
func (s *viewCountService) IncrementViewCount(ctx context.Context, req *models.IncrementViewCountRequest) (*models.ViewCount, error) {
	counter := req.Counter()

	var vc *models.ViewCount
	err := database.WithConnection(ctx, s.opener, s.logger, func(db *sql.DB) error {
		var err error
		vc, err = s.repos.CreateViewCountRepository(db).Increment(ctx, req.ProjectID, counter)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"project_id": req.ProjectID,
		"counter":    counter,
	}).Info("View count incremented")
	return vc, nil
}
