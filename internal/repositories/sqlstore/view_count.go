package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/models"
	"github.com/theodoremoreland/ViewCountAPI/internal/repositories"
)

// ViewCountRepository implements repositories.ViewCountRepository
type ViewCountRepository struct {
	baseRepository
}

// NewViewCountRepository creates a new view count repository
func NewViewCountRepository(db *sql.DB, logger *logrus.Logger) *ViewCountRepository {
	return &ViewCountRepository{
		baseRepository: newBaseRepository(db, "view_count", logger),
	}
}

// List returns every row. Columns are matched by name so deployments whose
// table lacks last_updated, or has extra counters, still read correctly.
func (r *ViewCountRepository) List(ctx context.Context) ([]models.ViewCount, error) {
	rows, err := r.executeQuery(ctx, "list", `SELECT * FROM view_count`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, repositories.NewRepositoryError("list", r.table, "", err)
	}

	counts := []models.ViewCount{}
	for rows.Next() {
		var (
			projectID   sql.NullString
			github      sql.NullInt64
			demo        sql.NullInt64
			lastUpdated models.NullTimestamp
		)

		dest := make([]interface{}, len(columns))
		for i, col := range columns {
			switch col {
			case "project_id":
				dest[i] = &projectID
			case "github_views":
				dest[i] = &github
			case "demo_views":
				dest[i] = &demo
			case "last_updated":
				dest[i] = &lastUpdated
			default:
				dest[i] = new(interface{})
			}
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, repositories.NewRepositoryError("list", r.table, "", err)
		}

		counts = append(counts, models.ViewCount{
			ProjectID:   projectID.String,
			GitHubViews: github.Int64,
			DemoViews:   demo.Int64,
			LastUpdated: lastUpdated.Ptr(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", r.table, "", err)
	}

	return counts, nil
}

// Increment adds one to the counter in a single atomic update.
func (r *ViewCountRepository) Increment(ctx context.Context, projectID string, counter models.ViewCounter) (*models.ViewCount, error) {
	column, ok := counter.Column()
	if !ok {
		return nil, repositories.NewRepositoryError("increment", r.table, projectID, repositories.ErrInvalidColumn)
	}

	query := fmt.Sprintf(`UPDATE view_count SET %[1]s = %[1]s + 1, last_updated = CURRENT_TIMESTAMP
		WHERE project_id = $1
		RETURNING project_id, github_views, demo_views, last_updated`, column)

	var (
		vc          models.ViewCount
		lastUpdated models.NullTimestamp
	)
	err := r.executeQueryRow(ctx, "increment", query, projectID).
		Scan(&vc.ProjectID, &vc.GitHubViews, &vc.DemoViews, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.NotFoundError("increment", r.table, projectID)
	}
	if err != nil {
		return nil, repositories.NewRepositoryError("increment", r.table, projectID, err)
	}

	vc.LastUpdated = lastUpdated.Ptr()
	return &vc, nil
}
