package wire

import (
	"strings"
	"unicode"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

// FlatFingerprint 是扁平形态的指纹线上结构（snake_case）。
type FlatFingerprint struct {
	Seed                 int64    `json:"seed"`
	Platform             string   `json:"platform"`
	Browser              string   `json:"browser"`
	UserAgent            string   `json:"user_agent"`
	Brand                string   `json:"brand,omitempty"`
	Version              string   `json:"version,omitempty"`
	HardwareConcurrency  int      `json:"hardware_concurrency"`
	DeviceMemory         int      `json:"device_memory"`
	ScreenResolution     string   `json:"screen_resolution"`
	ScreenWidth          int      `json:"screen_width,omitempty"`
	ScreenHeight         int      `json:"screen_height,omitempty"`
	Resolution           string   `json:"resolution,omitempty"`
	Timezone             string   `json:"timezone"`
	Language             string   `json:"language"`
	CanvasNoise          bool     `json:"canvas_noise"`
	WebglNoise           bool     `json:"webgl_noise"`
	AudioNoise           bool     `json:"audio_noise"`
	Canvas               string   `json:"canvas"`
	AudioContext         string   `json:"audio_context"`
	Webrtc               string   `json:"webrtc"`
	WebrtcPublicIP       string   `json:"webrtc_public_ip,omitempty"`
	WebrtcLocalIP        string   `json:"webrtc_local_ip,omitempty"`
	WebglVendor          string   `json:"webgl_vendor"`
	WebglRenderer        string   `json:"webgl_renderer"`
	Webgpu               bool     `json:"webgpu"`
	DoNotTrack           string   `json:"do_not_track"`
	ClientRects          bool     `json:"client_rects"`
	MediaDevices         string   `json:"media_devices"`
	Fonts                []string `json:"fonts,omitempty"`
	FontsMode            string   `json:"fonts_mode,omitempty"`
	DeviceName           string   `json:"device_name,omitempty"`
	MacAddress           string   `json:"mac_address,omitempty"`
	GeolocationMode      string   `json:"geolocation_mode,omitempty"`
	GeolocationLatitude  float64  `json:"geolocation_latitude,omitempty"`
	GeolocationLongitude float64  `json:"geolocation_longitude,omitempty"`
	GeolocationAccuracy  float64  `json:"geolocation_accuracy,omitempty"`
	PortScanProtection   bool     `json:"port_scan_protection"`
	HardwareAcceleration bool     `json:"hardware_acceleration"`
	DisableSandbox       bool     `json:"disable_sandbox"`
	VariationsEnabled    bool     `json:"variations_enabled,omitempty"`
	VariationsSeedID     string   `json:"variations_seed_id,omitempty"`
	SchemaVersion        int      `json:"schema_version,omitempty"`
}

func defaultFlat() FlatFingerprint {
	return FlatFromFingerprint(domain.DefaultFingerprint())
}

// FlatFromFingerprint 把内存指纹转为扁平线上结构。
func FlatFromFingerprint(f domain.Fingerprint) FlatFingerprint {
	return FlatFingerprint{
		Seed:                 f.Seed,
		Platform:             f.Platform,
		Browser:              f.Browser,
		UserAgent:            f.UserAgent,
		Brand:                f.Brand,
		Version:              f.Version,
		HardwareConcurrency:  f.HardwareConcurrency,
		DeviceMemory:         f.DeviceMemory,
		ScreenResolution:     f.ScreenResolution,
		ScreenWidth:          f.ScreenWidth,
		ScreenHeight:         f.ScreenHeight,
		Resolution:           f.Resolution,
		Timezone:             f.Timezone,
		Language:             f.Language,
		CanvasNoise:          f.CanvasNoise,
		WebglNoise:           f.WebglNoise,
		AudioNoise:           f.AudioNoise,
		Canvas:               f.Canvas,
		AudioContext:         f.AudioContext,
		Webrtc:               f.Webrtc,
		WebrtcPublicIP:       f.WebrtcPublicIP,
		WebrtcLocalIP:        f.WebrtcLocalIP,
		WebglVendor:          f.WebglVendor,
		WebglRenderer:        f.WebglRenderer,
		Webgpu:               f.Webgpu,
		DoNotTrack:           f.DoNotTrack,
		ClientRects:          f.ClientRects,
		MediaDevices:         f.MediaDevices,
		Fonts:                cloneStrings(f.Fonts),
		FontsMode:            f.FontsMode,
		DeviceName:           f.DeviceName,
		MacAddress:           f.MacAddress,
		GeolocationMode:      f.GeolocationMode,
		GeolocationLatitude:  f.GeolocationLatitude,
		GeolocationLongitude: f.GeolocationLongitude,
		GeolocationAccuracy:  f.GeolocationAccuracy,
		PortScanProtection:   f.PortScanProtection,
		HardwareAcceleration: f.HardwareAcceleration,
		DisableSandbox:       f.DisableSandbox,
		VariationsEnabled:    f.VariationsEnabled,
		VariationsSeedID:     f.VariationsSeedID,
		SchemaVersion:        f.SchemaVersion,
	}
}

// Fingerprint 把扁平线上结构转为内存指纹。
func (w FlatFingerprint) Fingerprint() domain.Fingerprint {
	return domain.Fingerprint{
		Seed:                 w.Seed,
		Platform:             w.Platform,
		Browser:              w.Browser,
		UserAgent:            w.UserAgent,
		Brand:                w.Brand,
		Version:              w.Version,
		HardwareConcurrency:  w.HardwareConcurrency,
		DeviceMemory:         w.DeviceMemory,
		ScreenResolution:     w.ScreenResolution,
		ScreenWidth:          w.ScreenWidth,
		ScreenHeight:         w.ScreenHeight,
		Resolution:           w.Resolution,
		Timezone:             w.Timezone,
		Language:             w.Language,
		CanvasNoise:          w.CanvasNoise,
		WebglNoise:           w.WebglNoise,
		AudioNoise:           w.AudioNoise,
		Canvas:               w.Canvas,
		AudioContext:         w.AudioContext,
		Webrtc:               w.Webrtc,
		WebrtcPublicIP:       w.WebrtcPublicIP,
		WebrtcLocalIP:        w.WebrtcLocalIP,
		WebglVendor:          w.WebglVendor,
		WebglRenderer:        w.WebglRenderer,
		Webgpu:               w.Webgpu,
		DoNotTrack:           w.DoNotTrack,
		ClientRects:          w.ClientRects,
		MediaDevices:         w.MediaDevices,
		Fonts:                cloneStrings(w.Fonts),
		FontsMode:            w.FontsMode,
		DeviceName:           w.DeviceName,
		MacAddress:           w.MacAddress,
		GeolocationMode:      w.GeolocationMode,
		GeolocationLatitude:  w.GeolocationLatitude,
		GeolocationLongitude: w.GeolocationLongitude,
		GeolocationAccuracy:  w.GeolocationAccuracy,
		PortScanProtection:   w.PortScanProtection,
		HardwareAcceleration: w.HardwareAcceleration,
		DisableSandbox:       w.DisableSandbox,
		VariationsEnabled:    w.VariationsEnabled,
		VariationsSeedID:     w.VariationsSeedID,
		SchemaVersion:        w.SchemaVersion,
	}
}

// FingerprintFromPayload 解出内存指纹；空载荷回落到默认指纹。
func FingerprintFromPayload(p FingerprintPayload) (domain.Fingerprint, error) {
	flat, ok, err := p.ToFlat()
	if err != nil {
		return domain.Fingerprint{}, err
	}
	if !ok {
		return domain.DefaultFingerprint(), nil
	}
	return flat.Fingerprint(), nil
}

// PatchToWire 把 camelCase 补丁键转为 snake_case。
func PatchToWire(patch map[string]any) map[string]any {
	if patch == nil {
		return nil
	}
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		out[snakeCase(k)] = v
	}
	return out
}

// PatchFromWire 把 snake_case 补丁键转为 camelCase，黑名单检测基于转换后的键。
func PatchFromWire(patch map[string]any) map[string]any {
	if patch == nil {
		return nil
	}
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		out[camelCase(k)] = v
	}
	return out
}

func snakeCase(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func camelCase(key string) string {
	parts := strings.Split(key, "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
