// 文件路径: internal/clientstate/state.go
// 模块说明: 客户端本地状态（主题、语言、分页），以 YAML 保存，不与后端同步。
package clientstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/fpbrowser/internal/config"
)

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	defaultPageSize = 20
	maxPageSize     = 500
)

// State 是持久化的界面偏好。
type State struct {
	Theme    string `yaml:"theme"`
	Locale   string `yaml:"locale"`
	PageSize int    `yaml:"page_size"`
	LastPage int    `yaml:"last_page"`
}

// Defaults 根据 ui 配置段生成初始状态。
func Defaults(cfg config.UIConfig) State {
	s := State{Theme: cfg.Theme, Locale: cfg.Locale, PageSize: cfg.PageSize, LastPage: 1}
	s.normalize()
	return s
}

// Load 读取状态文件；文件不存在时返回 defaults。无法识别的字段值回落到默认值。
func Load(path string, defaults State) (State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("read client state: %w", err)
	}

	s := defaults
	if err := yaml.Unmarshal(data, &s); err != nil {
		return defaults, fmt.Errorf("parse client state: %w", err)
	}
	s.normalize()
	return s, nil
}

// Save 先写临时文件再重命名，避免中途崩溃留下半个文件。
func Save(path string, s State) error {
	s.normalize()
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode client state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write client state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close client state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace client state: %w", err)
	}
	return nil
}

func (s *State) normalize() {
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		s.Theme = ThemeSystem
	}
	if tag, err := language.Parse(s.Locale); err == nil {
		s.Locale = tag.String()
	} else {
		s.Locale = "zh-CN"
	}
	if s.PageSize <= 0 || s.PageSize > maxPageSize {
		s.PageSize = defaultPageSize
	}
	if s.LastPage < 1 {
		s.LastPage = 1
	}
}
