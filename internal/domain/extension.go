package domain

import "time"

// Extension 是可分配给窗口的浏览器扩展。
type Extension struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	Sort        int       `json:"sort"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateExtensionInput struct {
	Name        string `json:"name" validate:"required,max=128"`
	Version     string `json:"version" validate:"max=32"`
	Description string `json:"description,omitempty" validate:"max=512"`
	Enabled     bool   `json:"enabled"`
	Sort        int    `json:"sort"`
}

type UpdateExtensionInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=128"`
	Version     *string `json:"version,omitempty"`
	Description *string `json:"description,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
	Sort        *int    `json:"sort,omitempty"`
}
