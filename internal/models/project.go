package models

import (
	"time"

	"github.com/google/uuid"
)

// Project groups related drawings for one user.
type Project struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CreatedByUserID uuid.UUID `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Drawing is one AI-authored drawing inside a project. Its content lives in
// revisions; CurrentRevision points at the latest one.
type Drawing struct {
	ID              uuid.UUID `json:"id"`
	ProjectID       uuid.UUID `json:"project_id"`
	Title           string    `json:"title"`
	CurrentRevision int       `json:"current_revision"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Revision statuses
const (
	RevisionStatusRendered = "rendered"
	RevisionStatusFailed   = "failed"
)

// Revision is one generation round of a drawing: the request that produced
// it, the drawing IR, the generated drafting code and the render outcome.
// Revisions are append-only; edits create a new revision and never rewrite an
// old one, which is the undo path.
type Revision struct {
	ID               uuid.UUID `json:"id"`
	DrawingID        uuid.UUID `json:"drawing_id"`
	RevisionNumber   int       `json:"revision_number"`
	Instruction      string    `json:"instruction"`
	IR               []byte    `json:"ir"`
	GeneratedCode    string    `json:"generated_code"`
	ArtifactFilename string    `json:"artifact_filename"`
	ArtifactSize     int64     `json:"artifact_size"`
	ArtifactContent  string    `json:"artifact_content,omitempty"`
	ExecutionLog     string    `json:"execution_log"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}
