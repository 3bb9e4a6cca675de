package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeProjectNotFound   = "PROJECT_NOT_FOUND"
	ErrCodeDrawingNotFound   = "DRAWING_NOT_FOUND"
	ErrCodeRevisionNotFound  = "REVISION_NOT_FOUND"
	ErrCodeRenderUnavailable = "RENDER_UNAVAILABLE"
	ErrCodeModelUnavailable  = "MODEL_UNAVAILABLE"
)
