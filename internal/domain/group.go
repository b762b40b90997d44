package domain

import "time"

// GroupPermission 表示分组的编辑权限。
type GroupPermission string

const (
	PermissionEditable GroupPermission = "editable"
	PermissionReadonly GroupPermission = "readonly"
)

// Group 是窗口分组；ProfileCount 由后端统计，不可单独修改。
type Group struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Sort         int             `json:"sort"`
	Permission   GroupPermission `json:"permission"`
	ProfileCount int             `json:"profileCount"`
	Remark       string          `json:"remark,omitempty"`
	Icon         string          `json:"icon,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// CreateGroupInput 创建分组入参。
type CreateGroupInput struct {
	Name       string          `json:"name" validate:"required,max=64"`
	Sort       int             `json:"sort"`
	Permission GroupPermission `json:"permission" validate:"omitempty,oneof=editable readonly"`
	Remark     string          `json:"remark,omitempty" validate:"max=255"`
	Icon       string          `json:"icon,omitempty"`
}

// UpdateGroupInput 部分更新分组。
type UpdateGroupInput struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,max=64"`
	Sort   *int    `json:"sort,omitempty"`
	Remark *string `json:"remark,omitempty"`
	Icon   *string `json:"icon,omitempty"`
}

// Tag 是窗口标签。
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Sort        int       `json:"sort"`
	Remark      string    `json:"remark,omitempty"`
	WindowCount int       `json:"windowCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateTagInput 创建标签入参。
type CreateTagInput struct {
	Name   string `json:"name" validate:"required,max=64"`
	Sort   int    `json:"sort"`
	Remark string `json:"remark,omitempty" validate:"max=255"`
}

// UpdateTagInput 部分更新标签。
type UpdateTagInput struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,max=64"`
	Sort   *int    `json:"sort,omitempty"`
	Remark *string `json:"remark,omitempty"`
}
