package handlers

import (
	"context"
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
	GetViewCountsName      = "get-view-counts"
	IncrementViewCountName = "increment-view-count"
)

// ViewCountHandler handles view counter requests
type ViewCountHandler struct {
	viewCountService services.ViewCountService
	logger           *logrus.Logger
}

// NewViewCountHandler creates a new view count handler
func NewViewCountHandler(viewCountService services.ViewCountService, logger *logrus.Logger) *ViewCountHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ViewCountHandler{
		viewCountService: viewCountService,
		logger:           logger,
	}
}

// GetViewCounts returns every project's counters keyed by project id.
//
//	GET -> 200 {"<project_id>": {"github_views": n, "demo_views": n, "last_updated": "..."}}
func (h *ViewCountHandler) GetViewCounts(ctx context.Context, req *lambda.Request) *lambda.Response {
	if req.Method != http.MethodGet {
		return methodNotAllowed(GetViewCountsName, http.MethodGet, req.Method)
	}

	counts, err := h.viewCountService.GetViewCounts(ctx)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			middleware.RequestIDKey: req.RequestID,
			"handler":               GetViewCountsName,
		}).Error("Database error")
		return lambda.InternalError()
	}

	return lambda.BuildResponse(http.StatusOK, counts)
}

// IncrementViewCount bumps the github or demo counter of one project.
//
//	PATCH {"projectId": "...", "isGitHubView": true} -> 200 updated row
func (h *ViewCountHandler) IncrementViewCount(ctx context.Context, req *lambda.Request) *lambda.Response {
	if req.Method != http.MethodPatch {
		return methodNotAllowed(IncrementViewCountName, http.MethodPatch, req.Method)
	}

	var body models.IncrementViewCountRequest
	if hasBody(req) {
		if err := decodeBody(req, &body); err != nil {
			return badRequest(MsgInvalidBody)
		}
	}
	if err := models.Validate(&body); err != nil {
		return badRequest(MsgIncrementFields)
	}

	vc, err := h.viewCountService.IncrementViewCount(ctx, &body)
	if err != nil {
		if repositories.IsNotFound(err) {
			return lambda.ErrorResponse(http.StatusNotFound, fmt.Sprintf(msgViewCountNotFoundFmt, body.ProjectID))
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			middleware.RequestIDKey: req.RequestID,
			"handler":               IncrementViewCountName,
			"project_id":            body.ProjectID,
		}).Error("Database error")
		return lambda.InternalError()
	}

	return lambda.BuildResponse(http.StatusOK, vc)
}
