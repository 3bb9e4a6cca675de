package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/auth"
	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/models"
	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/orchestration"
)

// roundTimeout bounds a background generation round: one model call with
// retries plus one remote render.
const roundTimeout = 5 * time.Minute

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	orchestrationService *orchestration.Service
	jwtManager           *auth.JWTManager
	pool                 *pgxpool.Pool
}

// NewHandler creates a new gateway handler
func NewHandler(orchestrationService *orchestration.Service, jwtManager *auth.JWTManager, pool *pgxpool.Pool) *Handler {
	return &Handler{
		orchestrationService: orchestrationService,
		jwtManager:           jwtManager,
		pool:                 pool,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var userID string
	var hashedPassword string
	err := h.pool.QueryRow(c.Request.Context(),
		`SELECT id, hashed_password FROM users WHERE email = $1`,
		req.Email,
	).Scan(&userID, &hashedPassword)

	if err != nil {
		log.Printf(`{"level":"warn","message":"User not found","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		log.Printf(`{"level":"warn","message":"Invalid password","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.jwtManager.GenerateToken(
		c.Request.Context(),
		userID,
		req.Email,
		[]string{"user"},
		24*time.Hour,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:  token,
		UserID: userID,
	})
}

// authenticatedUserID extracts the user ID set by the auth middleware.
func authenticatedUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDVal.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return uuid.Nil, false
	}
	return userID, true
}

// CreateProjectRequest represents a project creation request
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ProjectResponse represents a project response
type ProjectResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateProject godoc
// @Summary Create project
// @Description Create a new drawing project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body CreateProjectRequest true "Project details"
// @Success 201 {object} ProjectResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /projects [post]
func (h *Handler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	projectID, err := h.orchestrationService.CreateProject(c.Request.Context(), req.Name, req.Description, userID)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to create project","error":"%v","user_id":"%s"}`, err, userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ProjectResponse{
		ID:          projectID.String(),
		Name:        req.Name,
		Description: req.Description,
	})
}

// GetProject godoc
// @Summary Get project
// @Description Get project metadata
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id} [get]
func (h *Handler) GetProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	project, err := h.orchestrationService.GetProject(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, orchestration.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Project not found", Code: models.ErrCodeProjectNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project"})
		return
	}

	c.JSON(http.StatusOK, project)
}

// GenerateDrawingRequest represents a drawing generation request
type GenerateDrawingRequest struct {
	Description string `json:"description" binding:"required"`
}

// RoundAcceptedResponse is returned when a generation round starts; progress
// streams on the WebSocket endpoint under the job ID.
type RoundAcceptedResponse struct {
	JobID     string `json:"job_id"`
	DrawingID string `json:"drawing_id"`
}

// GenerateDrawing godoc
// @Summary Generate drawing
// @Description Start a generation round that creates a new drawing from a text description
// @Tags drawings
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body GenerateDrawingRequest true "Drawing description"
// @Success 202 {object} RoundAcceptedResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /projects/{id}/drawings [post]
func (h *Handler) GenerateDrawing(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var req GenerateDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, ok := authenticatedUserID(c); !ok {
		return
	}

	drawingID, err := h.orchestrationService.CreateDrawing(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, orchestration.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Project not found", Code: models.ErrCodeProjectNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create drawing"})
		return
	}

	jobID := uuid.New().String()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), roundTimeout)
		defer cancel()
		if _, err := h.orchestrationService.GenerateDrawing(ctx, drawingID, req.Description, jobID); err != nil {
			log.Printf(`{"level":"error","message":"Generation round failed","drawing_id":"%s","job_id":"%s","error":"%v"}`, drawingID, jobID, err)
		}
	}()

	c.JSON(http.StatusAccepted, RoundAcceptedResponse{
		JobID:     jobID,
		DrawingID: drawingID.String(),
	})
}

// ModifyDrawingRequest represents a drawing modification request
type ModifyDrawingRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

// ModifyDrawing godoc
// @Summary Modify drawing
// @Description Start an edit round that applies an instruction to the drawing's current revision
// @Tags drawings
// @Accept json
// @Produce json
// @Param id path string true "Drawing ID"
// @Param request body ModifyDrawingRequest true "Modification instruction"
// @Success 202 {object} RoundAcceptedResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /drawings/{id}/modifications [post]
func (h *Handler) ModifyDrawing(c *gin.Context) {
	drawingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid drawing ID"})
		return
	}

	var req ModifyDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, ok := authenticatedUserID(c); !ok {
		return
	}

	// Reject up front when the drawing is missing or has no rendered
	// revision yet, instead of failing inside the background round.
	drawing, err := h.orchestrationService.GetDrawing(c.Request.Context(), drawingID)
	if err != nil {
		if errors.Is(err, orchestration.ErrDrawingNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Drawing not found", Code: models.ErrCodeDrawingNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load drawing"})
		return
	}
	if drawing.CurrentRevision == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Drawing has no rendered revision to modify"})
		return
	}

	jobID := uuid.New().String()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), roundTimeout)
		defer cancel()
		if _, err := h.orchestrationService.ModifyDrawing(ctx, drawingID, req.Instruction, jobID); err != nil {
			log.Printf(`{"level":"error","message":"Edit round failed","drawing_id":"%s","job_id":"%s","error":"%v"}`, drawingID, jobID, err)
		}
	}()

	c.JSON(http.StatusAccepted, RoundAcceptedResponse{
		JobID:     jobID,
		DrawingID: drawingID.String(),
	})
}

// GetDrawing godoc
// @Summary Get drawing
// @Description Get drawing metadata including its current revision number
// @Tags drawings
// @Produce json
// @Param id path string true "Drawing ID"
// @Success 200 {object} models.Drawing
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /drawings/{id} [get]
func (h *Handler) GetDrawing(c *gin.Context) {
	drawingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid drawing ID"})
		return
	}

	drawing, err := h.orchestrationService.GetDrawing(c.Request.Context(), drawingID)
	if err != nil {
		if errors.Is(err, orchestration.ErrDrawingNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Drawing not found", Code: models.ErrCodeDrawingNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get drawing"})
		return
	}

	c.JSON(http.StatusOK, drawing)
}

// ListRevisions godoc
// @Summary List revisions
// @Description List revision summaries for a drawing, newest first
// @Tags drawings
// @Produce json
// @Param id path string true "Drawing ID"
// @Success 200 {array} models.Revision
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /drawings/{id}/revisions [get]
func (h *Handler) ListRevisions(c *gin.Context) {
	drawingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid drawing ID"})
		return
	}

	revisions, err := h.orchestrationService.ListRevisions(c.Request.Context(), drawingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list revisions"})
		return
	}

	c.JSON(http.StatusOK, revisions)
}

// GetRevision godoc
// @Summary Get revision
// @Description Get one revision of a drawing, including its IR and generated drafting code
// @Tags drawings
// @Produce json
// @Param id path string true "Drawing ID"
// @Param number path int true "Revision number"
// @Success 200 {object} models.Revision
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /drawings/{id}/revisions/{number} [get]
func (h *Handler) GetRevision(c *gin.Context) {
	drawingID, revisionNumber, ok := h.revisionParams(c)
	if !ok {
		return
	}

	rev, err := h.orchestrationService.GetRevision(c.Request.Context(), drawingID, revisionNumber)
	if err != nil {
		if errors.Is(err, orchestration.ErrRevisionNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Revision not found", Code: models.ErrCodeRevisionNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get revision"})
		return
	}

	// Revision payloads carry the artifact only on the download endpoint.
	rev.ArtifactContent = ""
	c.JSON(http.StatusOK, rev)
}

// DownloadArtifact godoc
// @Summary Download artifact
// @Description Download the rendered DXF file of a revision
// @Tags drawings
// @Produce application/octet-stream
// @Param id path string true "Drawing ID"
// @Param number path int true "Revision number"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /drawings/{id}/revisions/{number}/artifact [get]
func (h *Handler) DownloadArtifact(c *gin.Context) {
	drawingID, revisionNumber, ok := h.revisionParams(c)
	if !ok {
		return
	}

	rev, err := h.orchestrationService.GetRevision(c.Request.Context(), drawingID, revisionNumber)
	if err != nil {
		if errors.Is(err, orchestration.ErrRevisionNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Revision not found", Code: models.ErrCodeRevisionNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get revision"})
		return
	}

	if rev.Status != models.RevisionStatusRendered || rev.ArtifactContent == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "Revision has no rendered artifact"})
		return
	}

	content, err := base64.StdEncoding.DecodeString(rev.ArtifactContent)
	if err != nil {
		log.Printf(`{"level":"error","message":"Stored artifact is not valid base64","drawing_id":"%s","revision":%d}`, drawingID, revisionNumber)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored artifact is corrupt"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+rev.ArtifactFilename+`"`)
	c.Data(http.StatusOK, "application/octet-stream", content)
}

// revisionParams parses the drawing ID and revision number path parameters.
func (h *Handler) revisionParams(c *gin.Context) (uuid.UUID, int, bool) {
	drawingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid drawing ID"})
		return uuid.Nil, 0, false
	}

	revisionNumber, err := strconv.Atoi(c.Param("number"))
	if err != nil || revisionNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid revision number"})
		return uuid.Nil, 0, false
	}

	return drawingID, revisionNumber, true
}
