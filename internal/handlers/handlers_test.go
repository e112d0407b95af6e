package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodoremoreland/ViewCountAPI/internal/database"
	"github.com/theodoremoreland/ViewCountAPI/internal/middleware"
	"github.com/theodoremoreland/ViewCountAPI/internal/repositories/sqlstore"
	"github.com/theodoremoreland/ViewCountAPI/internal/secrets"
	"github.com/theodoremoreland/ViewCountAPI/internal/services"
	"github.com/theodoremoreland/ViewCountAPI/pkg/lambda"
)

// countingOpener wraps a real opener and records how often it was used.
type countingOpener struct {
	inner database.Opener
	opens int
	err   error
}

func (o *countingOpener) Open(ctx context.Context) (*sql.DB, error) {
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	return o.inner.Open(ctx)
}

type testEnv struct {
	opener   *countingOpener
	projects *ProjectHandler
	counts   *ViewCountHandler
	db       *sql.DB
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T, authorizer *middleware.APIKeyAuthorizer) *testEnv {
	t.Helper()
	logger := quietLogger()
	path := filepath.Join(t.TempDir(), "metadata.db")

	connector := database.NewConnector(&database.ConnectionConfig{
		Driver:       database.DriverSQLite,
		DatabasePath: path,
		Logger:       logger,
	}, nil)

	db, err := connector.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(context.Background(), db))
	t.Cleanup(func() { db.Close() })

	opener := &countingOpener{inner: connector}
	svc, err := services.NewServiceContainer(opener, sqlstore.NewFactory(logger), logger)
	require.NoError(t, err)

	return &testEnv{
		opener:   opener,
		projects: NewProjectHandler(svc.ProjectService, authorizer, 3, logger),
		counts:   NewViewCountHandler(svc.ViewCountService, logger),
		db:       db,
	}
}

func (e *testEnv) seedViewCount(t *testing.T, id string, github, demo int) {
	t.Helper()
	_, err := e.db.Exec(`INSERT INTO project (id, name) VALUES (?, ?)`, id, "Project "+id)
	require.NoError(t, err)
	_, err = e.db.Exec(`INSERT INTO view_count (project_id, github_views, demo_views) VALUES (?, ?, ?)`, id, github, demo)
	require.NoError(t, err)
}

func errorMessage(t *testing.T, resp *lambda.Response) string {
	t.Helper()
	var body lambda.ErrorBody
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	return body.Error
}

func post(body string) *lambda.Request {
	return &lambda.Request{Method: http.MethodPost, Path: "/projects", Body: []byte(body)}
}

func TestWrongMethod(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		handler lambda.HandlerFunc
		method  string
		message string
	}{
		{"add-project", env.projects.AddProject, http.MethodGet, "add-project only accepts POST method, you tried: GET method."},
		{"register-projects", env.projects.RegisterProjects, http.MethodGet, "register-projects only accepts POST method, you tried: GET method."},
		{"get-view-counts", env.counts.GetViewCounts, http.MethodPost, "get-view-counts only accepts GET method, you tried: POST method."},
		{"increment-view-count", env.counts.IncrementViewCount, http.MethodPost, "increment-view-count only accepts PATCH method, you tried: POST method."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.handler(ctx, &lambda.Request{Method: tt.method, Body: []byte(`{}`)})
			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.Equal(t, tt.message, errorMessage(t, resp))
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
		})
	}
	assert.Zero(t, env.opener.opens, "wrong method must not touch the database")
}

func TestAddProject(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.projects.AddProject(context.Background(), post(`{"projectId":"p1","projectName":"Portfolio"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body, &row))
	assert.Equal(t, "p1", row["id"])
	assert.Equal(t, "Portfolio", row["name"])
	assert.NotEmpty(t, row["date_added"])
	assert.Equal(t, 1, env.opener.opens)
}

func TestAddProject_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing name", `{"projectId":"p1"}`, MsgAddProjectFields},
		{"missing id", `{"projectName":"x"}`, MsgAddProjectFields},
		{"empty strings", `{"projectId":"","projectName":""}`, MsgAddProjectFields},
		{"no body", ``, MsgAddProjectFields},
		{"not json", `{nope`, MsgInvalidBody},
		{"array", `[]`, MsgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.projects.AddProject(context.Background(), post(tt.body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, errorMessage(t, resp))
		})
	}
	assert.Zero(t, env.opener.opens, "validation failures must not open a connection")
}

func TestAddProject_DuplicateIsInternalError(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.Equal(t, http.StatusCreated, env.projects.AddProject(ctx, post(`{"projectId":"p","projectName":"a"}`)).StatusCode)

	resp := env.projects.AddProject(ctx, post(`{"projectId":"p","projectName":"b"}`))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, lambda.InternalErrorMessage, errorMessage(t, resp))
}

func TestRegisterProjects(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	resp := env.projects.RegisterProjects(ctx, post(`[{"id":"b","name":"B"},{"id":"a","name":"A"}]`))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0]["id"])
	assert.Equal(t, "a", rows[1]["id"])

	// One new, one conflicting: still an array.
	resp = env.projects.RegisterProjects(ctx, post(`[{"id":"a","name":"A"},{"id":"c","name":"C"}]`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(resp.Body, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0]["id"])

	resp = env.projects.RegisterProjects(ctx, post(`[{"id":"a","name":"A"}]`))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, MsgRegisterConflict, errorMessage(t, resp))
}

func TestRegisterProjects_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing body", ``, MsgBodyMissing},
		{"blank body", `   `, MsgBodyMissing},
		{"object", `{"id":"a","name":"A"}`, MsgInvalidBody},
		{"empty array", `[]`, MsgRegisterEmpty},
		{"missing name", `[{"id":"a","name":"A"},{"id":"b"}]`, MsgRegisterFields},
		{"too many", `[{"id":"1","name":"1"},{"id":"2","name":"2"},{"id":"3","name":"3"},{"id":"4","name":"4"}]`, "Too many projects in one request: max 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.projects.RegisterProjects(context.Background(), post(tt.body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, errorMessage(t, resp))
		})
	}
	assert.Zero(t, env.opener.opens)
}

func TestRegisterProjects_APIKey(t *testing.T) {
	auth := middleware.NewAPIKeyAuthorizer(secrets.StaticToken("s3cret"), true, quietLogger())
	env := newTestEnv(t, auth)
	ctx := context.Background()

	req := post(`[{"id":"a","name":"A"}]`)
	resp := env.projects.RegisterProjects(ctx, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, MsgUnauthorized, errorMessage(t, resp))

	req.Headers = map[string]string{"x-api-key": "wrong"}
	assert.Equal(t, http.StatusUnauthorized, env.projects.RegisterProjects(ctx, req).StatusCode)
	assert.Zero(t, env.opener.opens)

	req.Headers = map[string]string{"X-API-Key": "s3cret"}
	assert.Equal(t, http.StatusCreated, env.projects.RegisterProjects(ctx, req).StatusCode)
}

func TestGetViewCounts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	get := &lambda.Request{Method: http.MethodGet, Path: "/view-counts"}

	resp := env.counts.GetViewCounts(ctx, get)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{}`, string(resp.Body))

	env.seedViewCount(t, "a", 2, 5)
	env.seedViewCount(t, "b", 0, 0)

	resp = env.counts.GetViewCounts(ctx, get)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]struct {
		GitHubViews int64   `json:"github_views"`
		DemoViews   int64   `json:"demo_views"`
		LastUpdated *string `json:"last_updated"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	require.Len(t, body, 2)
	assert.Equal(t, int64(2), body["a"].GitHubViews)
	assert.Equal(t, int64(5), body["a"].DemoViews)
	require.NotNil(t, body["a"].LastUpdated)
	assert.True(t, strings.HasSuffix(*body["a"].LastUpdated, "Z"))
}

func TestIncrementViewCount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedViewCount(t, "p", 10, 20)

	patch := func(body string) *lambda.Response {
		return env.counts.IncrementViewCount(ctx, &lambda.Request{Method: http.MethodPatch, Body: []byte(body)})
	}

	var row struct {
		ProjectID   string `json:"project_id"`
		GitHubViews int64  `json:"github_views"`
		DemoViews   int64  `json:"demo_views"`
		LastUpdated string `json:"last_updated"`
	}

	resp := patch(`{"projectId":"p","isGitHubView":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	require.NoError(t, json.Unmarshal(resp.Body, &row))
	assert.Equal(t, int64(11), row.GitHubViews)
	assert.Equal(t, int64(20), row.DemoViews)
	assert.NotEmpty(t, row.LastUpdated)

	resp = patch(`{"projectId":"p","isDemoView":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(resp.Body, &row))
	assert.Equal(t, int64(11), row.GitHubViews)
	assert.Equal(t, int64(21), row.DemoViews)

	resp = patch(`{"projectId":"p","isGitHubView":true,"isDemoView":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(resp.Body, &row))
	assert.Equal(t, int64(12), row.GitHubViews)
	assert.Equal(t, int64(21), row.DemoViews)

	resp = patch(`{"projectId":"ghost","isGitHubView":true}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No view count found for project: ghost", errorMessage(t, resp))

	// The miss must not touch existing rows.
	var rows int
	var github, demo int64
	require.NoError(t, env.db.QueryRow(`SELECT COUNT(*) FROM view_count`).Scan(&rows))
	require.NoError(t, env.db.QueryRow(`SELECT github_views, demo_views FROM view_count WHERE project_id = 'p'`).Scan(&github, &demo))
	assert.Equal(t, 1, rows)
	assert.Equal(t, int64(12), github)
	assert.Equal(t, int64(21), demo)
}

func TestWhitespaceProjectID(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	resp := env.projects.AddProject(ctx, post(`{"projectId":" ","projectName":"x"}`))
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	resp = env.projects.RegisterProjects(ctx, post(`[{"id":"  ","name":"x"}]`))
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	resp = env.counts.IncrementViewCount(ctx, &lambda.Request{Method: http.MethodPatch, Body: []byte(`{"projectId":" ","isDemoView":true}`)})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(resp.Body))
	assert.Equal(t, "No view count found for project:  ", errorMessage(t, resp))
}

func TestIncrementViewCount_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"no flags", `{"projectId":"p"}`, MsgIncrementFields},
		{"flags false", `{"projectId":"p","isGitHubView":false,"isDemoView":false}`, MsgIncrementFields},
		{"no id", `{"isDemoView":true}`, MsgIncrementFields},
		{"no body", ``, MsgIncrementFields},
		{"not json", `nope`, MsgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.counts.IncrementViewCount(context.Background(), &lambda.Request{Method: http.MethodPatch, Body: []byte(tt.body)})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, errorMessage(t, resp))
		})
	}
	assert.Zero(t, env.opener.opens)
}

func TestDatabaseFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.opener.err = errors.New("connection refused")
	ctx := context.Background()

	responses := []*lambda.Response{
		env.projects.AddProject(ctx, post(`{"projectId":"p","projectName":"n"}`)),
		env.projects.RegisterProjects(ctx, post(`[{"id":"p","name":"n"}]`)),
		env.counts.GetViewCounts(ctx, &lambda.Request{Method: http.MethodGet}),
		env.counts.IncrementViewCount(ctx, &lambda.Request{Method: http.MethodPatch, Body: []byte(`{"projectId":"p","isDemoView":true}`)}),
	}

	for _, resp := range responses {
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Internal server error"}`, string(resp.Body))
	}
}

func TestDatabaseFailure_Query(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.db.Exec(`DROP TABLE view_count`)
	require.NoError(t, err)

	responses := []*lambda.Response{
		env.counts.GetViewCounts(ctx, &lambda.Request{Method: http.MethodGet}),
		env.counts.IncrementViewCount(ctx, &lambda.Request{Method: http.MethodPatch, Body: []byte(`{"projectId":"p","isDemoView":true}`)}),
	}

	for _, resp := range responses {
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Internal server error"}`, string(resp.Body))
	}
	assert.Equal(t, 2, env.opener.opens)
}

func TestGin_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t, nil)

	router := gin.New()
	router.Use(middleware.RequestSizeLimit(16))
	router.Any("/projects", Gin(env.projects.AddProject))

	// No declared length, so only the body reader can enforce the limit.
	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"projectId":"p","projectName":"far too long"}`))
	req.ContentLength = -1

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "16 bytes")
	assert.Zero(t, env.opener.opens)
}

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t, nil)
	env.seedViewCount(t, "p", 0, 0)

	router := gin.New()
	SetupRoutes(router, &RouterConfig{
		AddProject:         env.projects.AddProject,
		RegisterProjects:   env.projects.RegisterProjects,
		GetViewCounts:      env.counts.GetViewCounts,
		IncrementViewCount: env.counts.IncrementViewCount,
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
		return w
	}

	w := do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodPost, "/projects", `{"projectId":"new","projectName":"New"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = do(http.MethodDelete, "/projects", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = do(http.MethodPatch, "/view-counts", `{"projectId":"p","isGitHubView":true}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/view-counts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"github_views":1`)

	w = do(http.MethodGet, OpenAPIPath, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths, "/projects")
	assert.Contains(t, doc.Paths, "/projects/register")
	assert.Contains(t, doc.Paths, "/view-counts")

	w = do(http.MethodGet, "/swagger/index.html", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi.json")
}
