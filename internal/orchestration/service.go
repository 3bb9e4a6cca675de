package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/dxf"
	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/metrics"
	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/models"
)

// Lookup errors, mapped to HTTP status codes by the gateway.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrDrawingNotFound  = errors.New("drawing not found")
	ErrRevisionNotFound = errors.New("revision not found")
)

// Service orchestrates generation rounds: prompt the model, validate the
// response into drawing IR, compile it to drafting code, render remotely and
// persist the revision.
type Service struct {
	pool     *pgxpool.Pool
	llm      LanguageModel
	renderer RenderClientInterface
	progress *ProgressBroker
	metrics  *metrics.RoundMetrics
	codegen  dxf.Options
}

// NewService creates a new orchestration service
func NewService(pool *pgxpool.Pool, llm LanguageModel, renderer RenderClientInterface, progress *ProgressBroker, rm *metrics.RoundMetrics) *Service {
	return &Service{
		pool:     pool,
		llm:      llm,
		renderer: renderer,
		progress: progress,
		metrics:  rm,
		codegen:  dxf.DefaultOptions(),
	}
}

// CreateProject creates a new project in the database
func (s *Service) CreateProject(ctx context.Context, name, description string, userID uuid.UUID) (uuid.UUID, error) {
	var projectID uuid.UUID

	err := s.pool.QueryRow(ctx,
		`INSERT INTO projects (name, description, created_by_user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		name, description, userID,
	).Scan(&projectID)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create project: %w", err)
	}

	return projectID, nil
}

// GetProject retrieves a project by ID
func (s *Service) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, created_by_user_id, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, projectID).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.CreatedByUserID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// CreateDrawing creates an empty drawing under a project. The first
// generation round fills in the title and revision 1.
func (s *Service) CreateDrawing(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`,
		projectID,
	).Scan(&exists)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return uuid.Nil, ErrProjectNotFound
	}

	var drawingID uuid.UUID
	err = s.pool.QueryRow(ctx,
		`INSERT INTO drawings (project_id, title, current_revision)
		 VALUES ($1, 'Untitled Drawing', 0)
		 RETURNING id`,
		projectID,
	).Scan(&drawingID)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create drawing: %w", err)
	}

	return drawingID, nil
}

// GenerateDrawing runs a full generation round for a fresh drawing: prompt
// the model with the description, parse the response into IR, compile, render
// and persist revision 1. Progress is published under jobID.
func (s *Service) GenerateDrawing(ctx context.Context, drawingID uuid.UUID, description, jobID string) (*models.Revision, error) {
	start := time.Now()
	s.metrics.RecordRoundStarted(ctx, drawingID.String(), "generate")

	s.progress.Publish(jobID, PhaseModelRequest, "requesting drawing from model")
	raw, err := s.llm.Complete(ctx, BuildGenerationPrompt(description))
	if err != nil {
		return nil, s.failRound(ctx, jobID, drawingID, "generate", "model", start, err)
	}
	s.progress.Publish(jobID, PhaseModelResponse, "model response received")

	drawing := dxf.Parse(raw)

	rev, err := s.compileRenderPersist(ctx, drawingID, drawing, description, jobID)
	if err != nil {
		return nil, s.failRound(ctx, jobID, drawingID, "generate", "render", start, err)
	}

	s.metrics.RecordRoundCompleted(ctx, drawingID.String(), "generate", time.Since(start))
	s.progress.Publish(jobID, PhaseCompleted, fmt.Sprintf("revision %d rendered", rev.RevisionNumber))
	return rev, nil
}

// ModifyDrawing runs an edit round: the previous revision's IR plus the
// user's instruction produce a patch, which is applied to yield the next
// revision. The previous revision is never mutated, so reverting is just
// pointing back at it.
func (s *Service) ModifyDrawing(ctx context.Context, drawingID uuid.UUID, instruction, jobID string) (*models.Revision, error) {
	start := time.Now()
	s.metrics.RecordRoundStarted(ctx, drawingID.String(), "modify")

	previous, err := s.loadCurrentIR(ctx, drawingID)
	if err != nil {
		return nil, s.failRound(ctx, jobID, drawingID, "modify", "load", start, err)
	}

	s.progress.Publish(jobID, PhaseModelRequest, "requesting patch from model")
	raw, err := s.llm.Complete(ctx, BuildModificationPrompt(previous, instruction))
	if err != nil {
		return nil, s.failRound(ctx, jobID, drawingID, "modify", "model", start, err)
	}
	s.progress.Publish(jobID, PhaseModelResponse, "model response received")

	patch, err := dxf.ParsePatch(raw)
	if err != nil {
		return nil, s.failRound(ctx, jobID, drawingID, "modify", "patch", start, err)
	}

	next, err := dxf.Apply(previous, patch)
	if err != nil {
		return nil, s.failRound(ctx, jobID, drawingID, "modify", "patch", start, err)
	}

	rev, err := s.compileRenderPersist(ctx, drawingID, next, instruction, jobID)
	if err != nil {
		return nil, s.failRound(ctx, jobID, drawingID, "modify", "render", start, err)
	}

	s.metrics.RecordRoundCompleted(ctx, drawingID.String(), "modify", time.Since(start))
	s.progress.Publish(jobID, PhaseCompleted, fmt.Sprintf("revision %d rendered", rev.RevisionNumber))
	return rev, nil
}

// compileRenderPersist is the shared back half of both round kinds: IR to
// drafting code, code to rendered artifact, artifact to a new revision row.
func (s *Service) compileRenderPersist(ctx context.Context, drawingID uuid.UUID, drawing dxf.Drawing, instruction, jobID string) (*models.Revision, error) {
	s.progress.Publish(jobID, PhaseCompile, "compiling drawing to drafting code")
	code := dxf.Generate(drawing, s.codegen)
	filename := dxf.SanitizeFilename(drawing.Title)
	if filename == "" {
		filename = s.codegen.FallbackName
	}
	filename += ".dxf"

	s.progress.Publish(jobID, PhaseRender, "executing drafting code on render runtime")
	result, err := s.renderer.Execute(ctx, code, filename)
	if err != nil {
		// Keep the failed attempt for inspection, without advancing the
		// drawing's current revision.
		if _, perr := s.persistRevision(ctx, drawingID, drawing, instruction, code, &RenderResult{
			Filename: filename,
			Error:    err.Error(),
		}, models.RevisionStatusFailed); perr != nil {
			log.Printf("ERROR: failed to persist failed revision for drawing %s: %v", drawingID, perr)
		}
		return nil, err
	}

	rev, err := s.persistRevision(ctx, drawingID, drawing, instruction, code, result, models.RevisionStatusRendered)
	if err != nil {
		return nil, err
	}
	s.progress.Publish(jobID, PhasePersisted, fmt.Sprintf("revision %d persisted", rev.RevisionNumber))
	return rev, nil
}

// persistRevision appends a revision row and, for rendered revisions,
// advances the drawing's title and current revision in the same transaction.
func (s *Service) persistRevision(ctx context.Context, drawingID uuid.UUID, drawing dxf.Drawing, instruction, code string, result *RenderResult, status string) (*models.Revision, error) {
	irJSON, err := json.Marshal(drawing)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal drawing: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var revisionNumber int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(revision_number), 0) + 1 FROM revisions WHERE drawing_id = $1`,
		drawingID,
	).Scan(&revisionNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revision number: %w", err)
	}

	rev := models.Revision{
		DrawingID:        drawingID,
		RevisionNumber:   revisionNumber,
		Instruction:      instruction,
		IR:               irJSON,
		GeneratedCode:    code,
		ArtifactFilename: result.Filename,
		ArtifactSize:     result.FileSize,
		ArtifactContent:  result.DXFContent,
		ExecutionLog:     result.ExecutionLog,
		Status:           status,
	}
	if status == models.RevisionStatusFailed && result.Error != "" {
		rev.ExecutionLog = result.Error
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO revisions (drawing_id, revision_number, instruction, ir, generated_code,
		                        artifact_filename, artifact_size, artifact_content, execution_log, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		rev.DrawingID, rev.RevisionNumber, rev.Instruction, rev.IR, rev.GeneratedCode,
		rev.ArtifactFilename, rev.ArtifactSize, rev.ArtifactContent, rev.ExecutionLog, rev.Status,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert revision: %w", err)
	}

	if status == models.RevisionStatusRendered {
		_, err = tx.Exec(ctx,
			`UPDATE drawings
			 SET title = $1, current_revision = $2, updated_at = NOW()
			 WHERE id = $3`,
			drawing.Title, revisionNumber, drawingID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update drawing: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit revision: %w", err)
	}

	return &rev, nil
}

// loadCurrentIR loads the IR of the drawing's current rendered revision.
func (s *Service) loadCurrentIR(ctx context.Context, drawingID uuid.UUID) (dxf.Drawing, error) {
	var irJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT r.ir
		FROM revisions r
		JOIN drawings d ON d.id = r.drawing_id AND d.current_revision = r.revision_number
		WHERE r.drawing_id = $1
	`, drawingID).Scan(&irJSON)

	if err != nil {
		if err == pgx.ErrNoRows {
			return dxf.Drawing{}, ErrRevisionNotFound
		}
		return dxf.Drawing{}, fmt.Errorf("failed to load current revision: %w", err)
	}

	var drawing dxf.Drawing
	if err := json.Unmarshal(irJSON, &drawing); err != nil {
		return dxf.Drawing{}, fmt.Errorf("failed to unmarshal stored drawing: %w", err)
	}
	return drawing, nil
}

// GetDrawing retrieves a drawing by ID
func (s *Service) GetDrawing(ctx context.Context, drawingID uuid.UUID) (*models.Drawing, error) {
	var drawing models.Drawing

	err := s.pool.QueryRow(ctx, `
		SELECT id, project_id, title, current_revision, created_at, updated_at
		FROM drawings
		WHERE id = $1
	`, drawingID).Scan(
		&drawing.ID,
		&drawing.ProjectID,
		&drawing.Title,
		&drawing.CurrentRevision,
		&drawing.CreatedAt,
		&drawing.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDrawingNotFound
		}
		return nil, fmt.Errorf("failed to get drawing: %w", err)
	}

	return &drawing, nil
}

// ListRevisions retrieves revision summaries for a drawing, newest first.
// Bulky columns (IR, generated code, artifact content) are left out; use
// GetRevision for the full row.
func (s *Service) ListRevisions(ctx context.Context, drawingID uuid.UUID) ([]*models.Revision, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, drawing_id, revision_number, instruction, artifact_filename,
		       artifact_size, status, created_at
		FROM revisions
		WHERE drawing_id = $1
		ORDER BY revision_number DESC
	`, drawingID)

	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*models.Revision
	for rows.Next() {
		var rev models.Revision
		err := rows.Scan(
			&rev.ID,
			&rev.DrawingID,
			&rev.RevisionNumber,
			&rev.Instruction,
			&rev.ArtifactFilename,
			&rev.ArtifactSize,
			&rev.Status,
			&rev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		revisions = append(revisions, &rev)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revisions: %w", err)
	}

	return revisions, nil
}

// GetRevision retrieves one revision of a drawing, including the IR, the
// generated drafting code and the base64 artifact.
func (s *Service) GetRevision(ctx context.Context, drawingID uuid.UUID, revisionNumber int) (*models.Revision, error) {
	var rev models.Revision

	err := s.pool.QueryRow(ctx, `
		SELECT id, drawing_id, revision_number, instruction, ir, generated_code,
		       artifact_filename, artifact_size, artifact_content, execution_log, status, created_at
		FROM revisions
		WHERE drawing_id = $1 AND revision_number = $2
	`, drawingID, revisionNumber).Scan(
		&rev.ID,
		&rev.DrawingID,
		&rev.RevisionNumber,
		&rev.Instruction,
		&rev.IR,
		&rev.GeneratedCode,
		&rev.ArtifactFilename,
		&rev.ArtifactSize,
		&rev.ArtifactContent,
		&rev.ExecutionLog,
		&rev.Status,
		&rev.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRevisionNotFound
		}
		return nil, fmt.Errorf("failed to get revision: %w", err)
	}

	return &rev, nil
}

// failRound records the failure in metrics and progress before returning the
// wrapped error to the caller.
func (s *Service) failRound(ctx context.Context, jobID string, drawingID uuid.UUID, kind, stage string, start time.Time, err error) error {
	s.metrics.RecordRoundFailed(ctx, drawingID.String(), kind, stage, time.Since(start))
	s.progress.Publish(jobID, PhaseFailed, err.Error())
	log.Printf("ERROR: %s round failed for drawing %s at %s stage: %v", kind, drawingID, stage, err)
	return fmt.Errorf("%s round failed: %w", kind, err)
}
