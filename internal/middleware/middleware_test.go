package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodoremoreland/ViewCountAPI/internal/secrets"
	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type failingTokens struct{}

func (failingTokens) Token(ctx context.Context) (string, error) {
	return "", errors.New("secret store unavailable")
}

func TestAPIKeyAuthorizer(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		tokens  secrets.TokenSource
		headers map[string]string
		wantErr error
		anyErr  bool
	}{
		{"disabled skips check", false, secrets.StaticToken("k"), nil, nil, false},
		{"matching key", true, secrets.StaticToken("k"), map[string]string{"x-api-key": "k"}, nil, false},
		{"header case ignored", true, secrets.StaticToken("k"), map[string]string{"X-Api-Key": "k"}, nil, false},
		{"missing key", true, secrets.StaticToken("k"), nil, ErrUnauthorized, true},
		{"empty key", true, secrets.StaticToken("k"), map[string]string{"x-api-key": ""}, ErrUnauthorized, true},
		{"wrong key", true, secrets.StaticToken("k"), map[string]string{"x-api-key": "nope"}, ErrUnauthorized, true},
		{"empty expected", true, secrets.StaticToken(""), map[string]string{"x-api-key": "k"}, ErrUnauthorized, true},
		{"token failure", true, failingTokens{}, map[string]string{"x-api-key": "k"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAPIKeyAuthorizer(tt.tokens, tt.enabled, quietLogger())
			err := auth.Authorize(context.Background(), &lambda.Request{Headers: tt.headers})

			if !tt.anyErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NotErrorIs(t, err, ErrUnauthorized)
			}
		})
	}
}

func TestRequestLogging_RequestID(t *testing.T) {
	var seen string
	h := RequestLogging(quietLogger())(func(ctx context.Context, req *lambda.Request) *lambda.Response {
		seen = RequestIDFromContext(ctx)
		assert.Equal(t, req.RequestID, seen)
		return lambda.BuildResponse(http.StatusOK, nil)
	})

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "aws-123"})
	h(ctx, &lambda.Request{Method: http.MethodGet})
	assert.Equal(t, "aws-123", seen)

	h(context.Background(), &lambda.Request{Method: http.MethodGet, RequestID: "gw-1"})
	assert.Equal(t, "gw-1", seen)

	h(context.Background(), &lambda.Request{Method: http.MethodGet})
	assert.Len(t, seen, 36)
}

func TestRecover(t *testing.T) {
	h := Recover(quietLogger())(func(ctx context.Context, req *lambda.Request) *lambda.Response {
		panic("boom")
	})

	resp := h(context.Background(), &lambda.Request{})
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Internal server error"}`, string(resp.Body))
}

func TestInvocation_PanicKeepsRequestID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := Invocation(logger)(func(ctx context.Context, req *lambda.Request) *lambda.Response {
		panic("boom")
	})

	resp := h(context.Background(), &lambda.Request{Method: http.MethodGet, RequestID: "gw-9"})
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var panicked, completed *logrus.Entry
	for _, entry := range hook.AllEntries() {
		switch entry.Message {
		case "Handler panicked":
			panicked = entry
		case "Request completed":
			completed = entry
		}
	}
	require.NotNil(t, panicked)
	require.NotNil(t, completed)
	assert.Equal(t, "gw-9", panicked.Data[RequestIDKey])
	assert.Equal(t, "gw-9", completed.Data[RequestIDKey])
	assert.Equal(t, http.StatusInternalServerError, completed.Data["status_code"])
}

func TestRecover_FallsBackToRequestField(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := Recover(logger)(func(ctx context.Context, req *lambda.Request) *lambda.Response {
		panic("boom")
	})

	h(context.Background(), &lambda.Request{RequestID: "gw-10"})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "gw-10", hook.LastEntry().Data[RequestIDKey])
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), RequestLogger(quietLogger()), SecurityHeaders(), RequestSizeLimit(16), RateLimiter(1, 1, quietLogger()))
	router.POST("/echo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": RequestIDFromContext(c.Request.Context())})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	req.Header.Set("X-Request-ID", "abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.JSONEq(t, `{"request_id":"abc"}`, w.Body.String())

	// Burst of one is spent.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestSizeLimit(4))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too large body"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSecurityHeaders_SwaggerSkipsCSP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/*any", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view-counts", nil))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
