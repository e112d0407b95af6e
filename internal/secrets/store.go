package secrets

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Store returns the raw string value of a secret.
type Store interface {
	GetSecretString(ctx context.Context, id string) (string, error)
}

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ParameterStoreAPI is the subset of the SSM client used here.
type ParameterStoreAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SecretsManagerStore reads secrets from AWS Secrets Manager.
type SecretsManagerStore struct {
	client SecretsManagerAPI
}

// NewSecretsManagerStore creates a store backed by client.
func NewSecretsManagerStore(client SecretsManagerAPI) *SecretsManagerStore {
	return &SecretsManagerStore{client: client}
}

// GetSecretString implements Store.
func (s *SecretsManagerStore) GetSecretString(ctx context.Context, id string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", err
	}
	if out == nil || out.SecretString == nil {
		return "", errors.New("secret has no string value")
	}
	return *out.SecretString, nil
}

// ParameterStore reads SecureString parameters from SSM Parameter Store.
type ParameterStore struct {
	client ParameterStoreAPI
}

// NewParameterStore creates a store backed by client.
func NewParameterStore(client ParameterStoreAPI) *ParameterStore {
	return &ParameterStore{client: client}
}

// GetSecretString implements Store.
func (s *ParameterStore) GetSecretString(ctx context.Context, id string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(id),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("parameter has no value")
	}
	return *out.Parameter.Value, nil
}
