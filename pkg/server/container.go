package server

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/internal/config"
	"github.com/theodoremoreland/ViewCountAPI/internal/database"
	"github.com/theodoremoreland/ViewCountAPI/internal/handlers"
	"github.com/theodoremoreland/ViewCountAPI/internal/middleware"
	"github.com/theodoremoreland/ViewCountAPI/internal/repositories/sqlstore"
	"github.com/theodoremoreland/ViewCountAPI/internal/secrets"
	"github.com/theodoremoreland/ViewCountAPI/internal/services"
	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
)

// Handlers holds the four entry points, already wrapped in the shared
// middleware chain.
type Handlers struct {
	AddProject         lambda.HandlerFunc
	RegisterProjects   lambda.HandlerFunc
	GetViewCounts      lambda.HandlerFunc
	IncrementViewCount lambda.HandlerFunc
}

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *logrus.Logger
	ProjectService   services.ProjectService
	ViewCountService services.ViewCountService
	Handlers         Handlers
	Health           *database.HealthChecker

	opener database.Opener
}

// NewContainer creates a new dependency injection container, resolving the
// secret store from the configured source.
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	store, err := newSecretStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewContainerWithStore(cfg, logger, store)
}

// NewContainerWithStore wires the container around an existing secret store.
// store may be nil when both credentials and the API key come from the
// environment.
func NewContainerWithStore(cfg *config.Config, logger *logrus.Logger, store secrets.Store) (*Container, error) {
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	credentials, err := newCredentialProvider(cfg, store, logger)
	if err != nil {
		return nil, err
	}
	tokens, err := newTokenSource(cfg, store, logger)
	if err != nil {
		return nil, err
	}

	opener := database.NewConnector(cfg.Database.ToConnectionConfig(logger), credentials)

	serviceContainer, err := services.NewServiceContainer(opener, sqlstore.NewFactory(logger), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}

	authorizer := middleware.NewAPIKeyAuthorizer(tokens, !cfg.IsLocal(), logger)
	projectHandler := handlers.NewProjectHandler(serviceContainer.ProjectService, authorizer, cfg.Limits.MaxRegisterBatch, logger)
	viewCountHandler := handlers.NewViewCountHandler(serviceContainer.ViewCountService, logger)

	wrap := func(h lambda.HandlerFunc) lambda.HandlerFunc {
		return lambda.Chain(h, middleware.Invocation(logger))
	}

	container := &Container{
		Config:           cfg,
		Logger:           logger,
		ProjectService:   serviceContainer.ProjectService,
		ViewCountService: serviceContainer.ViewCountService,
		Handlers: Handlers{
			AddProject:         wrap(projectHandler.AddProject),
			RegisterProjects:   wrap(projectHandler.RegisterProjects),
			GetViewCounts:      wrap(viewCountHandler.GetViewCounts),
			IncrementViewCount: wrap(viewCountHandler.IncrementViewCount),
		},
		Health: database.NewHealthChecker(opener, logger),
		opener: opener,
	}

	return container, nil
}

// Opener returns the connector used by every service
func (c *Container) Opener() database.Opener {
	return c.opener
}

func newSecretStore(ctx context.Context, cfg *config.Config) (secrets.Store, error) {
	source := cfg.Secrets.Source
	if source == config.SecretSourceEnv {
		if cfg.Secrets.AccessTokenSecretName == "" {
			return nil, nil
		}
		// The API key can still live in Secrets Manager.
		source = config.SecretSourceSecretsManager
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	switch source {
	case config.SecretSourceSSM:
		return secrets.NewParameterStore(ssm.NewFromConfig(awsCfg)), nil
	default:
		return secrets.NewSecretsManagerStore(secretsmanager.NewFromConfig(awsCfg)), nil
	}
}

func newCredentialProvider(cfg *config.Config, store secrets.Store, logger *logrus.Logger) (secrets.CredentialProvider, error) {
	if cfg.Secrets.Source == config.SecretSourceEnv || database.IsFileDriver(cfg.Database.Driver) {
		return secrets.NewStaticCredentialProvider(cfg.Database.StaticCredentials()), nil
	}
	if store == nil {
		return nil, fmt.Errorf("secret source %s requires a secret store", cfg.Secrets.Source)
	}
	return secrets.NewSecretCredentialProvider(store, cfg.AWS.Region, cfg.Secrets.DBSecretName, logger), nil
}

func newTokenSource(cfg *config.Config, store secrets.Store, logger *logrus.Logger) (secrets.TokenSource, error) {
	if cfg.Secrets.AccessTokenSecretName == "" {
		return secrets.StaticToken(cfg.Auth.PrivateAPIKey), nil
	}
	if store == nil {
		return nil, fmt.Errorf("access token secret %s requires a secret store", cfg.Secrets.AccessTokenSecretName)
	}
	return secrets.NewSecretToken(store, cfg.Secrets.AccessTokenSecretName, logger), nil
}
