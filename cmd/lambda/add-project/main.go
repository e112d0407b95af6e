package main

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/theodoremoreland/ViewCountAPI/internal/config"
	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
	"github.com/theodoremoreland/ViewCountAPI/pkg/server"
)

var container *server.Container

func init() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	container, err = server.NewContainer(context.Background(), cfg, config.NewLogger(cfg))
	if err != nil {
		panic("Failed to initialize container: " + err.Error())
	}
}

func main() {
	awslambda.Start(lambda.Adapt(container.Handlers.AddProject))
}
