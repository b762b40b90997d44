package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer 清理用户输入的名称和备注，去掉全部 HTML。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer 使用 StrictPolicy 构建清理器。
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text 去除标签和首尾空白；实体被还原，便于按原样显示。
func (s *Sanitizer) Text(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}
