package fingerprint

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Patch 是以 camelCase 字段名为键的指纹补丁。
type Patch = map[string]any

var (
	// ErrInvalidLanguage 表示 language 字段不是合法的 BCP 47 标签。
	ErrInvalidLanguage = errors.New("fingerprint: invalid language tag / 语言标签无效")
)

// BlacklistError 表示补丁包含危险字段，整体拒绝。
type BlacklistError struct {
	Fields []string
}

func (e *BlacklistError) Error() string {
	return fmt.Sprintf("fingerprint: blacklisted fields %s / 指纹包含禁止字段", strings.Join(e.Fields, ", "))
}

// FilterWhitelist 只保留白名单字段，其余静默丢弃。
func FilterWhitelist(patch Patch) Patch {
	out := make(Patch, len(patch))
	for k, v := range patch {
		if IsWhitelisted(k) {
			out[k] = v
		}
	}
	return out
}

// DetectBlacklist 返回所有命中黑名单的字段（按字母序）；以 path 结尾（不区分大小写）且不在白名单的字段同样视为命中。
func DetectBlacklist(attrs map[string]any) []string {
	var hits []string
	for k := range attrs {
		if IsBlacklisted(k) || (isPathKey(k) && !IsWhitelisted(k)) {
			hits = append(hits, k)
		}
	}
	sort.Strings(hits)
	return hits
}

func isPathKey(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), "path")
}

// Validate 在补丁送出前做硬性校验：黑名单字段与语言标签。
func Validate(patch Patch) error {
	if hits := DetectBlacklist(patch); len(hits) > 0 {
		return &BlacklistError{Fields: hits}
	}
	if raw, ok := patch["language"]; ok {
		tag, isString := raw.(string)
		if !isString {
			return ErrInvalidLanguage
		}
		if _, err := language.Parse(tag); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLanguage, tag)
		}
	}
	return nil
}

// MergePatch 返回 {...existing, ...FilterWhitelist(patch), schemaVersion}；existing 不会被修改。
func MergePatch(existing map[string]any, patch Patch) map[string]any {
	filtered := FilterWhitelist(patch)
	merged := make(map[string]any, len(existing)+len(filtered)+1)
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range filtered {
		merged[k] = v
	}
	merged[SchemaVersionKey] = SchemaVersion
	return merged
}

// Diff 返回 current 相对 original 改变过的字段；没有变化时返回 nil。
func Diff(original, current map[string]any) Patch {
	var patch Patch
	for k, v := range current {
		if old, ok := original[k]; ok && equalValue(old, v) {
			continue
		}
		if patch == nil {
			patch = make(Patch)
		}
		patch[k] = v
	}
	return patch
}

func equalValue(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
