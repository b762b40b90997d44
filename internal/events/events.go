// 文件路径: internal/events/events.go
// 模块说明: 后端推送给客户端的事件名与载荷。事件是单向、即发即弃的。
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Name 是事件名。
type Name string

const (
	ProfileCreated       Name = "profile:created"
	ProfileUpdated       Name = "profile:updated"
	ProfileDeleted       Name = "profile:deleted"
	ProfileStatusChanged Name = "profile:status_changed"

	BrowserError          Name = "browser:error"
	BrowserLaunchProgress Name = "browser:launch_progress"

	KernelDownloadProgress Name = "kernel:download-progress"
	KernelDownloadComplete Name = "kernel:download-complete"
	KernelDownloadError    Name = "kernel:download-error"
	UpdateDownloadProgress Name = "update:download-progress"
	AppWillRestart         Name = "app:will-restart"

	ProxyCreated Name = "proxy:created"
	ProxyUpdated Name = "proxy:updated"
	ProxyDeleted Name = "proxy:deleted"

	TagCreated Name = "tag:created"
	TagUpdated Name = "tag:updated"
	TagDeleted Name = "tag:deleted"
)

// LaunchStep 是浏览器启动进度中的命名步骤。
type LaunchStep string

const (
	StepCheckConfig     LaunchStep = "check_config"
	StepSyncExtensions  LaunchStep = "sync_extensions"
	StepSetupProxy      LaunchStep = "setup_proxy"
	StepSyncFingerprint LaunchStep = "sync_fingerprint"
	StepSyncCache       LaunchStep = "sync_cache"
	StepLaunching       LaunchStep = "launching"
	StepDone            LaunchStep = "done"
)

// LaunchSteps 按执行顺序列出全部步骤。
var LaunchSteps = []LaunchStep{
	StepCheckConfig,
	StepSyncExtensions,
	StepSetupProxy,
	StepSyncFingerprint,
	StepSyncCache,
	StepLaunching,
	StepDone,
}

// Event 是一条推送事件。
type Event struct {
	Name    Name            `json:"name"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// New 序列化载荷并构造事件。
func New(name Name, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Event{Name: name, Payload: raw, At: time.Now().UTC()}, nil
}

// Decode 把载荷解码到 v。
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return nil
}

// IDPayload 用于 *:deleted 事件。
type IDPayload struct {
	ID string `json:"id"`
}

// StatusChangedPayload 是 profile:status_changed 的载荷。
type StatusChangedPayload struct {
	ProfileID string `json:"profile_id"`
	Status    string `json:"status"`
}

// BrowserErrorPayload 是 browser:error 的载荷。
type BrowserErrorPayload struct {
	ProfileID string `json:"profile_id"`
	Error     string `json:"error"`
}

// LaunchProgressPayload 是 browser:launch_progress 的载荷。
type LaunchProgressPayload struct {
	ProfileID string     `json:"profile_id"`
	Step      LaunchStep `json:"step"`
	Index     int        `json:"index"`
	Total     int        `json:"total"`
	Message   string     `json:"message,omitempty"`
}
