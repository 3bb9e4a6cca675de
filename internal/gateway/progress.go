package gateway

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/auth"
	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/orchestration"
)

// ProgressStreamer handles WebSocket connections that follow a generation
// round's progress events by job ID.
type ProgressStreamer struct {
	broker     *orchestration.ProgressBroker
	jwtManager *auth.JWTManager
	tracer     trace.Tracer
	upgrader   websocket.Upgrader
}

// NewProgressStreamer creates a new progress WebSocket handler
func NewProgressStreamer(broker *orchestration.ProgressBroker, jwtManager *auth.JWTManager) *ProgressStreamer {
	return &ProgressStreamer{
		broker:     broker,
		jwtManager: jwtManager,
		tracer:     otel.Tracer("progress-streamer"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Implement proper CORS origin checking for production
				origin := r.Header.Get("Origin")
				log.Printf("WebSocket connection from origin: %s", origin)
				return true
			},
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// StreamProgress handles WebSocket /api/ws/rounds/:job_id
// @Summary Stream generation round progress
// @Description WebSocket endpoint to stream real-time phase events of a generation round
// @Tags drawings
// @Param job_id path string true "Job ID"
// @Param token query string false "JWT token"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /ws/rounds/{job_id} [get]
func (p *ProgressStreamer) StreamProgress(c *gin.Context) {
	_, span := p.tracer.Start(c.Request.Context(), "progress_streamer.stream_progress")
	defer span.End()

	jobID := c.Param("job_id")
	span.SetAttributes(attribute.String("job_id", jobID))

	userID, err := p.validateJWTAndGetUserID(c)
	if err != nil {
		span.RecordError(err)
		log.Printf("JWT validation failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	clientConn, err := p.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}
	defer clientConn.Close()

	log.Printf("WebSocket connection upgraded for job: %s, user: %s", jobID, userID)

	events, cancel := p.broker.Subscribe(jobID)
	defer cancel()

	// Detect client disconnect so a watcher who closes the tab releases the
	// subscription before the round finishes.
	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := clientConn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Round reached a terminal phase.
				clientConn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "round finished"))
				log.Printf("Progress stream ended for job: %s", jobID)
				return
			}
			if err := clientConn.WriteJSON(ev); err != nil {
				span.RecordError(err)
				log.Printf("Failed to forward progress event for job %s: %v", jobID, err)
				return
			}
		case <-clientClosed:
			log.Printf("Client disconnected from progress stream for job: %s", jobID)
			return
		}
	}
}

// validateJWTAndGetUserID validates the JWT token and returns the user ID.
// The token comes from the query parameter (WebSocket standard) or the
// Authorization header.
func (p *ProgressStreamer) validateJWTAndGetUserID(c *gin.Context) (string, error) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}

	if token == "" {
		return "", fmt.Errorf("missing JWT token")
	}

	claims, err := p.jwtManager.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return "", fmt.Errorf("invalid JWT: %w", err)
	}

	return claims.UserID, nil
}
