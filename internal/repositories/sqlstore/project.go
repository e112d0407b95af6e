package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/models"
	"github.com/theodoremoreland/ViewCountAPI/internal/repositories"
)

const projectColumns = "id, name, date_added"

// ProjectRepository implements repositories.ProjectRepository
type ProjectRepository struct {
	baseRepository
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *logrus.Logger) *ProjectRepository {
	return &ProjectRepository{
		baseRepository: newBaseRepository(db, "project", logger),
	}
}

// Create inserts one project
func (r *ProjectRepository) Create(ctx context.Context, id, name string) (*models.Project, error) {
	query := `INSERT INTO project (id, name) VALUES ($1, $2) RETURNING ` + projectColumns

	project := &models.Project{}
	err := r.executeQueryRow(ctx, "create", query, id, name).
		Scan(&project.ID, &project.Name, &project.DateAdded)
	if err != nil {
		return nil, repositories.NewRepositoryError("create", r.table, id, err)
	}

	return project, nil
}

// CreateBatch inserts every entry in one statement. Entries whose id already
// exists are skipped; if nothing was inserted ErrConflict is returned.
func (r *ProjectRepository) CreateBatch(ctx context.Context, entries []models.ProjectEntry) ([]*models.Project, error) {
	if len(entries) == 0 {
		return nil, repositories.NewRepositoryError("create_batch", r.table, "", errors.New("no entries"))
	}

	query, args := buildBatchInsert(entries)

	rows, err := r.executeQuery(ctx, "create_batch", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inserted := make(map[string]*models.Project, len(entries))
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(&project.ID, &project.Name, &project.DateAdded); err != nil {
			return nil, repositories.NewRepositoryError("create_batch", r.table, "", err)
		}
		inserted[project.ID] = project
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("create_batch", r.table, "", err)
	}

	if len(inserted) == 0 {
		return nil, repositories.ConflictError("create_batch", r.table, len(entries))
	}

	// RETURNING order is not guaranteed; rebuild it from the request.
	projects := make([]*models.Project, 0, len(inserted))
	for _, entry := range entries {
		if p, ok := inserted[entry.ID]; ok {
			projects = append(projects, p)
			delete(inserted, entry.ID)
		}
	}

	return projects, nil
}

// buildBatchInsert renders ($1, $2), ($3, $4), ... for the entries.
func buildBatchInsert(entries []models.ProjectEntry) (string, []interface{}) {
	placeholders := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*2)

	for i, entry := range entries {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2))
		args = append(args, entry.ID, entry.Name)
	}

	query := `INSERT INTO project (id, name) VALUES ` + strings.Join(placeholders, ", ") +
		` ON CONFLICT (id) DO NOTHING RETURNING ` + projectColumns

	return query, args
}
