// 文件路径: internal/repository/filters.go
// 模块说明: 列表查询使用的过滤条件。
package repository

import "github.com/creamcroissant/fpbrowser/internal/domain"

// ProfileListFilter constrains profile listings. Zero values mean "no constraint".
type ProfileListFilter struct {
	Group    string
	Statuses []domain.ProfileStatus
	Keyword  string
	Limit    int
	Offset   int
}
