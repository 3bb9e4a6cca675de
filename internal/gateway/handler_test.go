package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// validationRouter exposes the handlers without auth middleware so request
// validation can be exercised on its own. The service is never reached on
// these paths.
func validationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, nil)

	router := gin.New()
	router.POST("/api/projects", h.CreateProject)
	router.POST("/api/projects/:id/drawings", h.GenerateDrawing)
	router.POST("/api/drawings/:id/modifications", h.ModifyDrawing)
	router.GET("/api/drawings/:id", h.GetDrawing)
	router.GET("/api/drawings/:id/revisions", h.ListRevisions)
	router.GET("/api/drawings/:id/revisions/:number", h.GetRevision)
	router.GET("/api/drawings/:id/revisions/:number/artifact", h.DownloadArtifact)
	return router
}

func TestHandler_RequestValidation(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{
			name:           "create_project_missing_name",
			method:         "POST",
			path:           "/api/projects",
			body:           `{"description": "no name"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "create_project_malformed_json",
			method:         "POST",
			path:           "/api/projects",
			body:           `{"name": `,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "generate_drawing_invalid_project_id",
			method:         "POST",
			path:           "/api/projects/not-a-uuid/drawings",
			body:           `{"description": "a plate"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "generate_drawing_missing_description",
			method:         "POST",
			path:           "/api/projects/0b2d0adc-5f4f-4f52-9a4f-111111111111/drawings",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "modify_drawing_invalid_drawing_id",
			method:         "POST",
			path:           "/api/drawings/xyz/modifications",
			body:           `{"instruction": "remove the hole"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "modify_drawing_missing_instruction",
			method:         "POST",
			path:           "/api/drawings/0b2d0adc-5f4f-4f52-9a4f-111111111111/modifications",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "get_drawing_invalid_id",
			method:         "GET",
			path:           "/api/drawings/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "list_revisions_invalid_id",
			method:         "GET",
			path:           "/api/drawings/not-a-uuid/revisions",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "get_revision_invalid_number",
			method:         "GET",
			path:           "/api/drawings/0b2d0adc-5f4f-4f52-9a4f-111111111111/revisions/zero",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "get_revision_number_below_one",
			method:         "GET",
			path:           "/api/drawings/0b2d0adc-5f4f-4f52-9a4f-111111111111/revisions/0",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "download_artifact_invalid_number",
			method:         "GET",
			path:           "/api/drawings/0b2d0adc-5f4f-4f52-9a4f-111111111111/revisions/-3/artifact",
			expectedStatus: http.StatusBadRequest,
		},
	}

	router := validationRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHandler_UnauthenticatedUserRejected(t *testing.T) {
	// Valid payload but no user_id in the context: the auth check fires
	// before any service call.
	router := validationRouter()

	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader(`{"name": "Plates"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
