package models

// Project represents a row of the project table
type Project struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	DateAdded Timestamp `json:"date_added" db:"date_added"`
}

// AddProjectRequest is the body accepted by add-project
type AddProjectRequest struct {
	ProjectID   string `json:"projectId" validate:"required"`
	ProjectName string `json:"projectName" validate:"required"`
}

// ProjectEntry is one element of the register-projects body
type ProjectEntry struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// RegisterProjectsRequest is the body accepted by register-projects
type RegisterProjectsRequest []ProjectEntry

// Validate checks every entry; the first failure rejects the batch.
func (r RegisterProjectsRequest) Validate() error {
	for i := range r {
		if err := Validate(&r[i]); err != nil {
			return err
		}
	}
	return nil
}
