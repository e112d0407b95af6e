package secrets

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// CredentialProvider yields database credentials. Implementations are
// queried on every invocation.
type CredentialProvider interface {
	Credentials(ctx context.Context) (*DBCredentials, error)
}

// TokenSource yields the API key expected from callers.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// SecretCredentialProvider reads credentials from a Store.
type SecretCredentialProvider struct {
	store    Store
	region   string
	secretID string
	logger   *logrus.Logger
}

// NewSecretCredentialProvider creates a provider for the given secret.
func NewSecretCredentialProvider(store Store, region, secretID string, logger *logrus.Logger) *SecretCredentialProvider {
	return &SecretCredentialProvider{
		store:    store,
		region:   region,
		secretID: secretID,
		logger:   logger,
	}
}

// Credentials fetches and parses the secret. Nothing is cached.
func (p *SecretCredentialProvider) Credentials(ctx context.Context) (*DBCredentials, error) {
	if p.region == "" {
		return nil, &ConfigurationError{Setting: "AWS_REGION"}
	}
	if p.secretID == "" {
		return nil, &ConfigurationError{Setting: "SECRET_NAME"}
	}

	payload, err := p.store.GetSecretString(ctx, p.secretID)
	if err != nil {
		p.logger.WithError(err).WithField("secret_id", p.secretID).Error("Error retrieving secret")
		return nil, &RetrievalError{SecretID: p.secretID, Err: err}
	}

	creds, err := ParseDBCredentials(payload)
	if err != nil {
		p.logger.WithError(err).WithField("secret_id", p.secretID).Error("Error parsing secret")
		return nil, &RetrievalError{SecretID: p.secretID, Err: err}
	}

	return creds, nil
}

// StaticCredentialProvider returns a fixed credential set.
type StaticCredentialProvider struct {
	creds DBCredentials
}

// NewStaticCredentialProvider creates a provider that always returns creds.
func NewStaticCredentialProvider(creds DBCredentials) *StaticCredentialProvider {
	return &StaticCredentialProvider{creds: creds}
}

// Credentials returns a copy of the configured credentials.
func (p *StaticCredentialProvider) Credentials(ctx context.Context) (*DBCredentials, error) {
	creds := p.creds
	return &creds, nil
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// SecretToken reads the API key from a Store on every call.
type SecretToken struct {
	store    Store
	secretID string
	logger   *logrus.Logger
}

// NewSecretToken creates a TokenSource for the given secret.
func NewSecretToken(store Store, secretID string, logger *logrus.Logger) *SecretToken {
	return &SecretToken{store: store, secretID: secretID, logger: logger}
}

// Token implements TokenSource.
func (t *SecretToken) Token(ctx context.Context) (string, error) {
	if t.secretID == "" {
		return "", &ConfigurationError{Setting: "ACCESS_TOKEN_SECRET_NAME"}
	}

	token, err := t.store.GetSecretString(ctx, t.secretID)
	if err != nil {
		t.logger.WithError(err).WithField("secret_id", t.secretID).Error("Error retrieving access token")
		return "", &RetrievalError{SecretID: t.secretID, Err: err}
	}
	if token == "" {
		return "", &RetrievalError{SecretID: t.secretID, Err: errors.New("access token is empty")}
	}
	return token, nil
}
