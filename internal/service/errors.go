// 文件路径: internal/service/errors.go
// 模块说明: 业务层哨兵错误，API 层据此映射 HTTP 状态码。
package service

import "errors"

var (
	// ErrNotFound indicates requested resource does not exist.
	ErrNotFound = errors.New("service: not found / 未找到资源")
	// ErrInvalidInput indicates request payload failed validation.
	ErrInvalidInput = errors.New("service: invalid input / 参数无效")
	// ErrProfileNotFound covers both missing and already soft-deleted profiles.
	ErrProfileNotFound = errors.New("service: profile not found or already deleted / 窗口不存在或已删除")
	// ErrNotInRecycleBin indicates a restore or purge targeted a live profile.
	ErrNotInRecycleBin = errors.New("service: not in recycle bin / 窗口不在回收站中")
	// ErrProfileRunning indicates the profile must be stopped first.
	ErrProfileRunning = errors.New("service: profile is running / 窗口正在运行，请先关闭")
	// ErrDefaultGroup indicates the default group cannot be removed.
	ErrDefaultGroup = errors.New("service: default group cannot be deleted / 默认分组不可删除")
	// ErrGroupNotEmpty indicates the group still owns profiles.
	ErrGroupNotEmpty = errors.New("service: group is not empty / 分组下仍有窗口")
	// ErrGroupReadonly indicates the group is readonly.
	ErrGroupReadonly = errors.New("service: group is readonly / 分组只读")
	// ErrNameExists indicates a unique name is taken.
	ErrNameExists = errors.New("service: name already exists / 名称已存在")
	// ErrUnsupported indicates the command is recognized but not provided by this backend.
	ErrUnsupported = errors.New("service: unsupported operation / 不支持的操作")
	// ErrInvalidCredentials indicates provided credentials are wrong.
	ErrInvalidCredentials = errors.New("service: invalid credentials / 凭证无效")
	// ErrRateLimited indicates caller exceeded allowed attempts.
	ErrRateLimited = errors.New("service: rate limited / 请求过于频繁")
	// ErrUnauthorized indicates missing or invalid auth tokens.
	ErrUnauthorized = errors.New("service: unauthorized / 未授权")
	// ErrInvalidRefreshToken indicates refresh token problems.
	ErrInvalidRefreshToken = errors.New("service: invalid refresh token / 刷新令牌无效")
	// ErrUsernameExists indicates username already registered.
	ErrUsernameExists = errors.New("service: username already exists / 用户名已存在")
	// ErrInvalidLicense indicates the license key is malformed or fails its checksum.
	ErrInvalidLicense = errors.New("service: invalid license key / 许可证无效")
)
