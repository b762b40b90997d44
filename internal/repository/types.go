// 文件路径: internal/repository/types.go
// 模块说明: 仓储层专用的记录类型，领域对象之外的持久化字段放在这里。
package repository

import "github.com/creamcroissant/fpbrowser/internal/domain"

// UserRecord couples a user with its stored password hash.
type UserRecord struct {
	domain.User
	PasswordHash string
}

// Setting mirrors the settings table.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt int64
}
