// 文件路径: internal/repository/errors.go
// 模块说明: 仓储层共用的哨兵错误。
package repository

import "errors"

var (
	// ErrNotFound 表示查询未返回数据。
	ErrNotFound = errors.New("not found / 未找到数据")
	// ErrConflict 表示唯一约束冲突（如重名）。
	ErrConflict = errors.New("conflict / 数据已存在")
	// ErrNotDeleted 表示记录不在回收站中。
	ErrNotDeleted = errors.New("not in recycle bin / 不在回收站中")
)
