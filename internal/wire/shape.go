// 文件路径: internal/wire/shape.go
// 模块说明: 指纹线上格式有两种形态：生成器产出的嵌套结构与表单产出的扁平结构。
// 后端不保证携带类型标记，结构判别只在 SniffShape 中进行。
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Shape 是指纹载荷的形态标记。
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeFlat
	ShapeNested
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	default:
		return "empty"
	}
}

// ErrMalformedFingerprint 表示指纹载荷不是 JSON 对象。
var ErrMalformedFingerprint = errors.New("wire: malformed fingerprint payload / 指纹数据格式错误")

// SniffShape 判别原始指纹 JSON 的形态：同时含 navigator 与 screen 对象即为嵌套结构。
func SniffShape(raw []byte) (Shape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ShapeEmpty, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return ShapeEmpty, ErrMalformedFingerprint
	}
	doc := gjson.ParseBytes(trimmed)
	if !doc.IsObject() {
		return ShapeEmpty, ErrMalformedFingerprint
	}
	if doc.Get("navigator").IsObject() && doc.Get("screen").IsObject() {
		return ShapeNested, nil
	}
	return ShapeFlat, nil
}

// FingerprintPayload 是指纹线上载荷的标记联合，Shape 决定哪个分支有效。
type FingerprintPayload struct {
	Shape  Shape
	Flat   *FlatFingerprint
	Nested json.RawMessage
}

// FlatPayload 以扁平形态包装指纹。
func FlatPayload(flat FlatFingerprint) FingerprintPayload {
	return FingerprintPayload{Shape: ShapeFlat, Flat: &flat}
}

// UnmarshalJSON 在生产者边界上确定形态；扁平载荷缺失的字段取默认值。
func (p *FingerprintPayload) UnmarshalJSON(raw []byte) error {
	shape, err := SniffShape(raw)
	if err != nil {
		return err
	}
	*p = FingerprintPayload{Shape: shape}
	switch shape {
	case ShapeNested:
		p.Nested = append(json.RawMessage(nil), raw...)
	case ShapeFlat:
		flat := defaultFlat()
		if err := json.Unmarshal(raw, &flat); err != nil {
			return fmt.Errorf("decode flat fingerprint: %w", err)
		}
		p.Flat = &flat
	}
	return nil
}

// MarshalJSON 输出当前分支。
func (p FingerprintPayload) MarshalJSON() ([]byte, error) {
	switch p.Shape {
	case ShapeNested:
		return p.Nested, nil
	case ShapeFlat:
		if p.Flat == nil {
			return []byte("null"), nil
		}
		return json.Marshal(p.Flat)
	default:
		return []byte("null"), nil
	}
}

// ToFlat 把任意形态归一为扁平结构；空载荷返回 ok=false。
func (p FingerprintPayload) ToFlat() (FlatFingerprint, bool, error) {
	switch p.Shape {
	case ShapeFlat:
		if p.Flat == nil {
			return FlatFingerprint{}, false, nil
		}
		return *p.Flat, true, nil
	case ShapeNested:
		raw, err := FlattenNested(p.Nested)
		if err != nil {
			return FlatFingerprint{}, false, err
		}
		flat := defaultFlat()
		if err := json.Unmarshal(raw, &flat); err != nil {
			return FlatFingerprint{}, false, fmt.Errorf("decode flattened fingerprint: %w", err)
		}
		return flat, true, nil
	default:
		return FlatFingerprint{}, false, nil
	}
}

type field struct {
	path  string
	value any
}

// FlattenNested 把生成器产出的嵌套指纹折叠为扁平 snake_case JSON。
func FlattenNested(raw []byte) ([]byte, error) {
	doc := gjson.ParseBytes(raw)
	nav := doc.Get("navigator")
	screen := doc.Get("screen")

	out := []byte("{}")
	set := func(path string, value any) error {
		var err error
		out, err = sjson.SetBytes(out, path, value)
		return err
	}

	platform := nav.Get("platform").String()
	if platform == "" {
		platform = "windows"
	}
	timezone := doc.Get("timezone.id").String()
	if timezone == "" {
		timezone = "America/New_York"
	}
	rgbNoise := doc.Get("canvas.rgb_noise")

	fields := []field{
		{"platform", platform},
		{"browser", "chrome"},
		{"user_agent", nav.Get("user_agent").String()},
		{"hardware_concurrency", nav.Get("hardware_concurrency").Int()},
		{"device_memory", nav.Get("device_memory").Int()},
		{"screen_width", screen.Get("width").Int()},
		{"screen_height", screen.Get("height").Int()},
		{"screen_resolution", fmt.Sprintf("%dx%d", screen.Get("width").Int(), screen.Get("height").Int())},
		{"timezone", timezone},
		{"language", nav.Get("language").String()},
		{"canvas_noise", rgbNoise.IsArray() && len(rgbNoise.Array()) > 0},
		{"webgl_noise", doc.Get("webgl.vendor").Exists()},
		{"audio_noise", doc.Get("audio.noise_factor").Type == gjson.Number},
	}
	if seed := doc.Get("seed.master"); seed.Exists() {
		fields = append(fields, field{"seed", seed.Int()})
	}
	if vendor := doc.Get("webgl.vendor"); vendor.Exists() {
		fields = append(fields, field{"webgl_vendor", vendor.String()})
	}
	if renderer := doc.Get("webgl.renderer"); renderer.Exists() {
		fields = append(fields, field{"webgl_renderer", renderer.String()})
	}
	for _, f := range fields {
		if err := set(f.path, f.value); err != nil {
			return nil, fmt.Errorf("flatten %s: %w", f.path, err)
		}
	}
	return out, nil
}
