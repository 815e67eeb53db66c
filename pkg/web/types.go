// Package web provides HTTP request and response types for the editorial API.
package web

import (
	"github.com/dukex/editorial/pkg/models"
)

// Identity headers set by the upstream authentication layer.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// ExecuteActionRequest represents the request body for applying a workflow action.
// Action names are matched case-insensitively by models.ParseWorkflowAction.
type ExecuteActionRequest struct {
	Action  string  `json:"action"            validate:"required"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// ActionResponse is returned after a committed transition.
type ActionResponse struct {
	Message  string               `json:"message"`
	NewState models.WorkflowState `json:"new_state"`
}

// AvailableActionsResponse lists what the caller may do with a post right now.
type AvailableActionsResponse struct {
	PostID  string                  `json:"post_id"`
	Actions []models.WorkflowAction `json:"actions"`
}

// CreateVersionRequest represents the request body for creating a content version.
// Omitted fields keep the post's current values.
type CreateVersionRequest struct {
	Title    *string        `json:"title,omitempty"    validate:"omitempty,min=1,max=300"`
	Content  *string        `json:"content,omitempty"`
	Excerpt  *string        `json:"excerpt,omitempty"  validate:"omitempty,max=500"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Input converts the request into the service input.
func (r CreateVersionRequest) Input() models.VersionInput {
	return models.VersionInput{
		Title:    r.Title,
		Content:  r.Content,
		Excerpt:  r.Excerpt,
		Metadata: r.Metadata,
	}
}
