package lambda

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// FromAPIGatewayRequest converts an API Gateway proxy event into a Request.
func FromAPIGatewayRequest(event events.APIGatewayProxyRequest) (*Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded && event.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	return &Request{
		Method:      event.HTTPMethod,
		Path:        event.Path,
		Headers:     event.Headers,
		QueryParams: event.QueryStringParameters,
		PathParams:  event.PathParameters,
		Body:        body,
		RequestID:   event.RequestContext.RequestID,
	}, nil
}

// ToAPIGatewayResponse converts a Response into an API Gateway proxy response.
func ToAPIGatewayResponse(resp *Response) events.APIGatewayProxyResponse {
	if resp == nil {
		resp = InternalError()
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}

// Adapt turns a HandlerFunc into a function suitable for lambda.Start.
// The returned error is always nil so API Gateway never sees a Lambda failure.
func Adapt(h HandlerFunc) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := FromAPIGatewayRequest(event)
		if err != nil {
			return ToAPIGatewayResponse(ErrorResponse(http.StatusBadRequest, "Invalid request body")), nil
		}
		return ToAPIGatewayResponse(h(ctx, req)), nil
	}
}
