package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
)

// Client-facing error messages
const (
	MsgInvalidBody          = "Invalid request body"
	MsgBodyMissing          = "Request body is missing"
	MsgAddProjectFields     = "Missing required fields: projectId and projectName"
	MsgRegisterFields       = "Missing required fields: id and name"
	MsgRegisterEmpty        = "Request body must contain at least one project"
	MsgRegisterConflict     = "No new entries were added, possibly due to conflict."
	MsgIncrementFields      = "Missing required fields: projectId and isGitHubView or isDemoView"
	MsgUnauthorized         = "Unauthorized request: Invalid or missing API key"
	msgTooManyProjectsFmt   = "Too many projects in one request: max %d"
	msgViewCountNotFoundFmt = "No view count found for project: %s"
)

// methodNotAllowed builds the 405 returned when a handler is called with
// the wrong HTTP method.
func methodNotAllowed(handler, allowed, got string) *lambda.Response {
	return lambda.ErrorResponse(http.StatusMethodNotAllowed,
		fmt.Sprintf("%s only accepts %s method, you tried: %s method.", handler, allowed, got))
}

func badRequest(message string) *lambda.Response {
	return lambda.ErrorResponse(http.StatusBadRequest, message)
}

// hasBody reports whether the request carries a non-blank body.
func hasBody(req *lambda.Request) bool {
	return len(strings.TrimSpace(string(req.Body))) > 0
}

// decodeBody unmarshals the request body into v.
func decodeBody(req *lambda.Request, v interface{}) error {
	return json.Unmarshal(req.Body, v)
}
