package domain

import (
	"encoding/json"
	"fmt"
)

// Fingerprint 描述一个合成的浏览器身份。
type Fingerprint struct {
	Seed                 int64    `json:"seed"`
	Platform             string   `json:"platform"`
	Browser              string   `json:"browser"`
	UserAgent            string   `json:"userAgent"`
	Brand                string   `json:"brand,omitempty"`
	Version              string   `json:"version,omitempty"`
	HardwareConcurrency  int      `json:"hardwareConcurrency"`
	DeviceMemory         int      `json:"deviceMemory"`
	ScreenResolution     string   `json:"screenResolution"`
	ScreenWidth          int      `json:"screenWidth,omitempty"`
	ScreenHeight         int      `json:"screenHeight,omitempty"`
	Resolution           string   `json:"resolution,omitempty"`
	Timezone             string   `json:"timezone"`
	Language             string   `json:"language"`
	CanvasNoise          bool     `json:"canvasNoise"`
	WebglNoise           bool     `json:"webglNoise"`
	AudioNoise           bool     `json:"audioNoise"`
	Canvas               string   `json:"canvas"`
	AudioContext         string   `json:"audioContext"`
	Webrtc               string   `json:"webrtc"`
	WebrtcPublicIP       string   `json:"webrtcPublicIp,omitempty"`
	WebrtcLocalIP        string   `json:"webrtcLocalIp,omitempty"`
	WebglVendor          string   `json:"webglVendor"`
	WebglRenderer        string   `json:"webglRenderer"`
	Webgpu               bool     `json:"webgpu"`
	DoNotTrack           string   `json:"doNotTrack"`
	ClientRects          bool     `json:"clientRects"`
	MediaDevices         string   `json:"mediaDevices"`
	Fonts                []string `json:"fonts,omitempty"`
	FontsMode            string   `json:"fontsMode,omitempty"`
	DeviceName           string   `json:"deviceName,omitempty"`
	MacAddress           string   `json:"macAddress,omitempty"`
	GeolocationMode      string   `json:"geolocationMode,omitempty"`
	GeolocationLatitude  float64  `json:"geolocationLatitude,omitempty"`
	GeolocationLongitude float64  `json:"geolocationLongitude,omitempty"`
	GeolocationAccuracy  float64  `json:"geolocationAccuracy,omitempty"`
	PortScanProtection   bool     `json:"portScanProtection"`
	HardwareAcceleration bool     `json:"hardwareAcceleration"`
	DisableSandbox       bool     `json:"disableSandbox"`
	VariationsEnabled    bool     `json:"variationsEnabled,omitempty"`
	VariationsSeedID     string   `json:"variationsSeedId,omitempty"`
	SchemaVersion        int      `json:"schemaVersion,omitempty"`
}

// DefaultFingerprint 是后端未返回指纹时使用的兜底值。
func DefaultFingerprint() Fingerprint {
	return Fingerprint{
		Platform:             "windows",
		Browser:              "chrome",
		UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		HardwareConcurrency:  8,
		DeviceMemory:         16,
		ScreenResolution:     "1920x1080",
		Timezone:             "Asia/Shanghai",
		Language:             "zh-CN",
		CanvasNoise:          true,
		WebglNoise:           true,
		AudioNoise:           true,
		Canvas:               "noise",
		AudioContext:         "noise",
		Webrtc:               "real",
		WebglVendor:          "Intel Inc.",
		WebglRenderer:        "Intel Iris OpenGL Engine",
		Webgpu:               true,
		DoNotTrack:           "unspecified",
		ClientRects:          true,
		MediaDevices:         "real",
		PortScanProtection:   true,
		HardwareAcceleration: true,
		DisableSandbox:       false,
	}
}

// Clone 拷贝切片字段。
func (f Fingerprint) Clone() Fingerprint {
	out := f
	if f.Fonts != nil {
		out.Fonts = append([]string(nil), f.Fonts...)
	}
	return out
}

// ToMap 把指纹展开成属性包，供白名单过滤与合并使用。
func (f Fingerprint) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode fingerprint: %w", err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fingerprint map: %w", err)
	}
	return out, nil
}

// FingerprintFromMap 从属性包还原指纹；未知键被忽略。
func FingerprintFromMap(attrs map[string]any) (Fingerprint, error) {
	var fp Fingerprint
	raw, err := json.Marshal(attrs)
	if err != nil {
		return fp, fmt.Errorf("encode fingerprint map: %w", err)
	}
	if err := json.Unmarshal(raw, &fp); err != nil {
		return fp, fmt.Errorf("decode fingerprint: %w", err)
	}
	return fp, nil
}
