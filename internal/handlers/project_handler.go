package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/middleware"
	"github.com/theodoremoreland/ViewCountAPI/internal/models"
	"github.com/theodoremoreland/ViewCountAPI/internal/repositories"
	"github.com/theodoremoreland/ViewCountAPI/internal/services"
	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
)

// Handler names, as they appear in 405 messages and logs
const (
	AddProjectName       = "add-project"
	RegisterProjectsName = "register-projects"
)

// DefaultMaxRegisterBatch bounds the number of projects per register call.
const DefaultMaxRegisterBatch = 500

// ProjectHandler handles project-related requests
type ProjectHandler struct {
	projectService services.ProjectService
	authorizer     *middleware.APIKeyAuthorizer
	maxBatch       int
	logger         *logrus.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService services.ProjectService, authorizer *middleware.APIKeyAuthorizer, maxBatch int, logger *logrus.Logger) *ProjectHandler {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxRegisterBatch
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ProjectHandler{
		projectService: projectService,
		authorizer:     authorizer,
		maxBatch:       maxBatch,
		logger:         logger,
	}
}

// AddProject inserts one project.
//
//	POST {"projectId": "...", "projectName": "..."} -> 201 inserted row
func (h *ProjectHandler) AddProject(ctx context.Context, req *lambda.Request) *lambda.Response {
	if req.Method != http.MethodPost {
		return methodNotAllowed(AddProjectName, http.MethodPost, req.Method)
	}

	var body models.AddProjectRequest
	if hasBody(req) {
		if err := decodeBody(req, &body); err != nil {
			return badRequest(MsgInvalidBody)
		}
	}
	if err := models.Validate(&body); err != nil {
		return badRequest(MsgAddProjectFields)
	}

	project, err := h.projectService.AddProject(ctx, &body)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			middleware.RequestIDKey: req.RequestID,
			"handler":               AddProjectName,
			"project_id":            body.ProjectID,
		}).Error("Database error")
		return lambda.InternalError()
	}

	return lambda.BuildResponse(http.StatusCreated, project)
}

// RegisterProjects inserts a batch of projects, skipping existing ids.
//
//	POST [{"id": "...", "name": "..."}, ...] -> 201 inserted rows
func (h *ProjectHandler) RegisterProjects(ctx context.Context, req *lambda.Request) *lambda.Response {
	if req.Method != http.MethodPost {
		return methodNotAllowed(RegisterProjectsName, http.MethodPost, req.Method)
	}

	if err := h.authorizer.Authorize(ctx, req); err != nil {
		if errors.Is(err, middleware.ErrUnauthorized) {
			return lambda.ErrorResponse(http.StatusUnauthorized, MsgUnauthorized)
		}
		h.logger.WithError(err).WithField(middleware.RequestIDKey, req.RequestID).Error("Failed to authorize request")
		return lambda.InternalError()
	}

	if !hasBody(req) {
		return badRequest(MsgBodyMissing)
	}

	var entries models.RegisterProjectsRequest
	if err := decodeBody(req, &entries); err != nil {
		return badRequest(MsgInvalidBody)
	}
	if len(entries) == 0 {
		return badRequest(MsgRegisterEmpty)
	}
	if len(entries) > h.maxBatch {
		return badRequest(fmt.Sprintf(msgTooManyProjectsFmt, h.maxBatch))
	}
	if err := entries.Validate(); err != nil {
		return badRequest(MsgRegisterFields)
	}

	projects, err := h.projectService.RegisterProjects(ctx, entries)
	if err != nil {
		if repositories.IsConflict(err) {
			h.logger.WithFields(logrus.Fields{
				middleware.RequestIDKey: req.RequestID,
				"requested":             len(entries),
			}).Warn(MsgRegisterConflict)
			return lambda.ErrorResponse(http.StatusConflict, MsgRegisterConflict)
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			middleware.RequestIDKey: req.RequestID,
			"handler":               RegisterProjectsName,
		}).Error("Database error")
		return lambda.InternalError()
	}

	return lambda.BuildResponse(http.StatusCreated, projects)
}
