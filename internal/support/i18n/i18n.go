// 文件路径: internal/support/i18n/i18n.go
// 模块说明: 终端界面的翻译表。内置 en-US 与 zh-CN，可从外部目录覆盖；语言按 x/text 的匹配规则回落。
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// Manager 管理翻译内容。
type Manager struct {
	defaultLang  string
	translations map[string]map[string]string
	matcher      language.Matcher
	tags         []string
	logger       *slog.Logger
	mu           sync.RWMutex
}

// Option 用于配置 Manager。
type Option func(*Manager)

// WithLogger 设置 Manager 使用的日志实例。
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDefaultLang 设置默认语言。
func WithDefaultLang(lang string) Option {
	return func(m *Manager) {
		m.defaultLang = lang
	}
}

// NewManager 创建 i18n Manager 并加载内置语言包。
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		defaultLang:  "en-US",
		translations: make(map[string]map[string]string),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadEmbeddedTranslations(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustDefault 返回只含内置语言包的 Manager；内置文件损坏属于构建错误。
func MustDefault() *Manager {
	m, err := NewManager()
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Manager) loadEmbeddedTranslations() error {
	entries, err := embeddedLocales.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("i18n: read embedded locales: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := embeddedLocales.ReadFile("locales/" + entry.Name())
		if err != nil {
			return fmt.Errorf("i18n: read locale %s: %w", entry.Name(), err)
		}
		var content map[string]string
		if err := json.Unmarshal(data, &content); err != nil {
			return fmt.Errorf("i18n: parse locale %s: %w", entry.Name(), err)
		}
		m.merge(strings.TrimSuffix(entry.Name(), ".json"), content)
	}
	return nil
}

// LoadFromDir 从外部目录加载翻译文件，同名键覆盖内置内容。目录不存在不算错误。
func (m *Manager) LoadFromDir(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("i18n: read locales dir: %w", err)
	}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			m.logger.Warn("failed to read external locale file", "file", file.Name(), "error", err)
			continue
		}
		var content map[string]string
		if err := json.Unmarshal(data, &content); err != nil {
			m.logger.Warn("failed to unmarshal external locale file", "file", file.Name(), "error", err)
			continue
		}
		m.merge(strings.TrimSuffix(file.Name(), ".json"), content)
	}
	return nil
}

func (m *Manager) merge(lang string, content map[string]string) {
	if tag, err := language.Parse(lang); err == nil {
		lang = tag.String()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.translations[lang]; !ok {
		m.translations[lang] = make(map[string]string, len(content))
	}
	maps.Copy(m.translations[lang], content)

	m.tags = slices.Sorted(maps.Keys(m.translations))
	// 默认语言放首位，匹配失败时回落到它
	supported := []language.Tag{language.Make(m.defaultLang)}
	for _, t := range m.tags {
		if t != m.defaultLang {
			supported = append(supported, language.Make(t))
		}
	}
	m.matcher = language.NewMatcher(supported)
}

// Match 返回与 lang 最接近的已加载语言。
func (m *Manager) Match(lang string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.matchLocked(lang)
}

func (m *Manager) matchLocked(lang string) string {
	if _, ok := m.translations[lang]; ok {
		return lang
	}
	if m.matcher == nil {
		return m.defaultLang
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return m.defaultLang
	}
	_, idx, conf := m.matcher.Match(tag)
	if conf == language.No {
		return m.defaultLang
	}
	if idx == 0 {
		return m.defaultLang
	}
	others := slices.DeleteFunc(slices.Clone(m.tags), func(t string) bool { return t == m.defaultLang })
	return others[idx-1]
}

// Translate 按语言与键名返回翻译内容；缺失时回落到默认语言，再回落为 key 本身。
func (m *Manager) Translate(lang, key string, args ...any) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range []string{m.matchLocked(lang), m.defaultLang} {
		if val, ok := m.translations[l][key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(val, args...)
			}
			return val
		}
	}
	return key
}

// For 绑定语言，返回便于调用的翻译函数。
func (m *Manager) For(lang string) func(key string, args ...any) string {
	lang = m.Match(lang)
	return func(key string, args ...any) string {
		return m.Translate(lang, key, args...)
	}
}

// GetSupportedLanguages 返回支持的语言列表，按字母排序。
func (m *Manager) GetSupportedLanguages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tags)
}
