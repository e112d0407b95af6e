package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
)

// RequestIDKey is the key used to store request ID in context
const RequestIDKey = "request_id"

type requestIDContextKey struct{}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// resolveRequestID prefers the Lambda invocation id, then the API Gateway
// request id, then a fresh UUID.
func resolveRequestID(ctx context.Context, req *lambda.Request) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	if req.RequestID != "" {
		return req.RequestID
	}
	if id := RequestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

// RequestLogging logs every invocation. Headers and bodies are never logged;
// they may carry the API key or caller data.
func RequestLogging(logger *logrus.Logger) lambda.Middleware {
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return func(ctx context.Context, req *lambda.Request) *lambda.Response {
			start := time.Now()
			req.RequestID = resolveRequestID(ctx, req)
			ctx = WithRequestID(ctx, req.RequestID)

			entry := logger.WithFields(logrus.Fields{
				RequestIDKey: req.RequestID,
				"method":     req.Method,
				"path":       req.Path,
			})
			entry.Info("Request received")

			resp := next(ctx, req)

			fields := logrus.Fields{
				"latency_ms": float64(time.Since(start).Nanoseconds()) / 1000000,
			}
			if resp != nil {
				fields["status_code"] = resp.StatusCode
			}

			switch {
			case resp == nil || resp.StatusCode >= 500:
				entry.WithFields(fields).Error("Request completed")
			case resp.StatusCode >= 400:
				entry.WithFields(fields).Warn("Request completed")
			default:
				entry.WithFields(fields).Info("Request completed")
			}
			return resp
		}
	}
}

// Recover turns a panic inside the handler into the generic 500 response.
func Recover(logger *logrus.Logger) lambda.Middleware {
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return func(ctx context.Context, req *lambda.Request) (resp *lambda.Response) {
			defer func() {
				if r := recover(); r != nil {
					requestID := RequestIDFromContext(ctx)
					if requestID == "" && req != nil {
						requestID = req.RequestID
					}
					logger.WithFields(logrus.Fields{
						RequestIDKey:  requestID,
						"panic":       fmt.Sprintf("%v", r),
						"stack_trace": string(debug.Stack()),
					}).Error("Handler panicked")
					resp = lambda.InternalError()
				}
			}()
			return next(ctx, req)
		}
	}
}

// Invocation is the chain every entry point runs under. Logging sits
// outermost so recovered panics still carry the request id and still log
// "Request completed".
func Invocation(logger *logrus.Logger) lambda.Middleware {
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return lambda.Chain(next, RequestLogging(logger), Recover(logger))
	}
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
