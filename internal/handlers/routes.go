package handlers

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/theodoremoreland/ViewCountAPI/internal/middleware"
	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
)

// OpenAPIPath serves the API description read by the Swagger UI.
const OpenAPIPath = "/openapi.json"

//go:embed openapi.json
var openAPIDocument []byte

// RouterConfig holds the handlers mounted on the local server
type RouterConfig struct {
	AddProject         lambda.HandlerFunc
	RegisterProjects   lambda.HandlerFunc
	GetViewCounts      lambda.HandlerFunc
	IncrementViewCount lambda.HandlerFunc
	HealthCheck        func(c *gin.Context) error
}

// SetupRoutes mounts the handlers. Every route accepts any method so that
// method checking, and its 405 body, stays inside the handlers.
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		if config.HealthCheck != nil {
			if err := config.HealthCheck(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.Any("/projects", Gin(config.AddProject))
	router.Any("/projects/register", Gin(config.RegisterProjects))
	router.Any("/view-counts", func(c *gin.Context) {
		// get-view-counts and increment-view-count share a path.
		if c.Request.Method == http.MethodPatch {
			Gin(config.IncrementViewCount)(c)
			return
		}
		Gin(config.GetViewCounts)(c)
	})

	router.GET(OpenAPIPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPIDocument)
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(OpenAPIPath)))
}

// Gin adapts a lambda.HandlerFunc to gin.
func Gin(h lambda.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeResponse(c, lambda.ErrorResponse(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum allowed size (%d bytes)", tooLarge.Limit)))
			return
		}
		if err != nil {
			writeResponse(c, lambda.ErrorResponse(http.StatusBadRequest, MsgInvalidBody))
			return
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k := range c.Request.Header {
			headers[k] = c.Request.Header.Get(k)
		}

		query := make(map[string]string)
		for k, v := range c.Request.URL.Query() {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}

		req := &lambda.Request{
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			Headers:     headers,
			QueryParams: query,
			Body:        body,
			RequestID:   c.GetString(middleware.RequestIDKey),
		}

		writeResponse(c, h(c.Request.Context(), req))
	}
}

func writeResponse(c *gin.Context, resp *lambda.Response) {
	if resp == nil {
		resp = lambda.InternalError()
	}
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], resp.Body)
}
