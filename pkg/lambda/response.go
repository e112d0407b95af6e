package lambda

import (
	"encoding/json"
	"net/http"
)

// InternalErrorMessage is the only detail a caller ever sees for a 5xx.
const InternalErrorMessage = "Internal server error"

var defaultHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key",
	"Access-Control-Allow-Methods": "GET,POST,PATCH,OPTIONS",
	"Content-Type":                 "application/json",
}

var internalErrorBody = []byte(`{"error":"Internal server error"}`)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// DefaultHeaders returns a fresh copy of the headers attached to every response.
func DefaultHeaders() map[string]string {
	h := make(map[string]string, len(defaultHeaders))
	for k, v := range defaultHeaders {
		h[k] = v
	}
	return h
}

// BuildResponse wraps a status code and a JSON-serializable body into the
// response envelope.
func BuildResponse(statusCode int, body interface{}) *Response {
	data, err := json.Marshal(body)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    DefaultHeaders(),
			Body:       internalErrorBody,
		}
	}
	return &Response{
		StatusCode: statusCode,
		Headers:    DefaultHeaders(),
		Body:       data,
	}
}

// ErrorResponse builds an {"error": message} response.
func ErrorResponse(statusCode int, message string) *Response {
	return BuildResponse(statusCode, ErrorBody{Error: message})
}

// InternalError builds the generic 500 response.
func InternalError() *Response {
	return ErrorResponse(http.StatusInternalServerError, InternalErrorMessage)
}
