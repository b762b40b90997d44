// 文件路径: internal/fingerprint/policy.go
// 模块说明: 指纹字段的白名单/黑名单。白名单字段允许用户写入，黑名单字段永远不能送达后端。
package fingerprint

import "fmt"

// SchemaVersion 写入每次合并结果，后端据此识别指纹结构。
const SchemaVersion = 1

// SchemaVersionKey 是合并结果中的版本字段名。
const SchemaVersionKey = "schemaVersion"

var whitelist = newSet(
	"platform",
	"browser",
	"hardwareConcurrency",
	"deviceMemory",
	"screenResolution",
	"timezone",
	"language",
	"userAgent",
	"canvasNoise",
	"webglNoise",
	"audioNoise",
	"webrtc",
	"webrtcPublicIp",
	"webrtcLocalIp",
	"webglVendor",
	"webglRenderer",
	"webgpu",
	"canvas",
	"audioContext",
	"doNotTrack",
	"clientRects",
	"mediaDevices",
	"fonts",
	"resolution",
	"screenWidth",
	"screenHeight",
	"brand",
	"version",
	"seed",
)

// 启动参数、文件路径、调试端口与脚本注入相关字段。
var blacklist = newSet(
	"launchArgs",
	"args",
	"cmdline",
	"commandLine",
	"startupArgs",
	"extensionPath",
	"extensionsPath",
	"loadExtension",
	"disableExtensions",
	"binaryPath",
	"pluginPath",
	"userDataDir",
	"diskCacheDir",
	"remoteDebuggingPort",
	"debugPort",
	"cdpPort",
	"proxyServer",
	"proxyBypassList",
	"injectScript",
	"preload",
)

func init() {
	for key := range blacklist {
		if _, ok := whitelist[key]; ok {
			panic(fmt.Sprintf("fingerprint: %q is both whitelisted and blacklisted", key))
		}
	}
}

type set map[string]struct{}

func newSet(keys ...string) set {
	s := make(set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// IsWhitelisted 判断字段是否允许由用户补丁写入。
func IsWhitelisted(key string) bool {
	_, ok := whitelist[key]
	return ok
}

// IsBlacklisted 判断字段是否在固定黑名单中。
func IsBlacklisted(key string) bool {
	_, ok := blacklist[key]
	return ok
}

// Whitelist 返回白名单字段副本。
func Whitelist() []string { return whitelist.keys() }

// Blacklist 返回黑名单字段副本。
func Blacklist() []string { return blacklist.keys() }

func (s set) keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
