package transport

import "github.com/fastygo/taskmaster/domain"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BulkUpdateRequest applies one patch to every listed task.
type BulkUpdateRequest struct {
	IDs     []string         `json:"ids"`
	Updates domain.TaskPatch `json:"updates"`
}

// ImportRequest accepts either the export bundle or its bare data array.
type ImportRequest struct {
	Data []domain.Task `json:"data"`
}
