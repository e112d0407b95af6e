package middleware

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/secrets"
	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
)

// APIKeyHeader carries the static key on protected endpoints.
const APIKeyHeader = "x-api-key"

// ErrUnauthorized is returned when the API key is absent or wrong.
var ErrUnauthorized = errors.New("unauthorized")

// APIKeyAuthorizer checks the x-api-key header against a TokenSource.
type APIKeyAuthorizer struct {
	tokens  secrets.TokenSource
	enabled bool
	logger  *logrus.Logger
}

// NewAPIKeyAuthorizer creates an authorizer. When enabled is false every
// request is allowed, which is how local development runs.
func NewAPIKeyAuthorizer(tokens secrets.TokenSource, enabled bool, logger *logrus.Logger) *APIKeyAuthorizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &APIKeyAuthorizer{
		tokens:  tokens,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether keys are checked.
func (a *APIKeyAuthorizer) Enabled() bool {
	return a != nil && a.enabled
}

// Authorize returns nil when the request may proceed, ErrUnauthorized when
// the key is missing or does not match, and any other error when the
// expected key could not be obtained.
func (a *APIKeyAuthorizer) Authorize(ctx context.Context, req *lambda.Request) error {
	if !a.Enabled() {
		return nil
	}

	provided, ok := req.Header(APIKeyHeader)
	if !ok || provided == "" {
		a.logger.WithField("path", req.Path).Warn("Request without API key")
		return ErrUnauthorized
	}

	if a.tokens == nil {
		return errors.New("no token source configured")
	}
	expected, err := a.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if expected == "" {
		a.logger.Error("Expected API key is empty")
		return ErrUnauthorized
	}

	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		a.logger.WithField("path", req.Path).Warn("Request with invalid API key")
		return ErrUnauthorized
	}

	return nil
}
