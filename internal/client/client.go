// Package client 是后端 IPC 命令面的 HTTP 客户端。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/creamcroissant/fpbrowser/internal/config"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
	clientVersion      = "0.3.0"
)

var defaultRetryStatusCodes = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// ErrUnavailable 表示多次重试后仍无法完成请求。
var ErrUnavailable = errors.New("client: backend unavailable / 后端不可用")

// Error 是后端返回的业务错误，Message 已去掉传输层前缀。
type Error struct {
	Command    string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode 返回 err 链上的 HTTP 状态码，非后端错误返回 0。
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Options 配置客户端。零值字段使用默认值：30 秒超时，最多 3 次尝试，线性退避 1s × 次数。
type Options struct {
	BaseURL          string
	Timeout          time.Duration
	MaxAttempts      int
	RetryDelay       time.Duration
	RetryStatusCodes []int
	HTTPClient       *http.Client
	Logger           *slog.Logger
}

// Client 调用 POST {base}/api/v1/invoke/{command}。
type Client struct {
	baseURL     string
	http        *http.Client
	stream      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	retryCodes  []int
	logger      *slog.Logger

	mu    sync.RWMutex
	token string
}

// New 创建客户端。
func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if len(opts.RetryStatusCodes) == 0 {
		opts.RetryStatusCodes = defaultRetryStatusCodes
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	// 事件流是长连接，不能套用请求超时。
	streamClient := &http.Client{Transport: httpClient.Transport}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		http:        httpClient,
		stream:      streamClient,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		retryCodes:  slices.Clone(opts.RetryStatusCodes),
		logger:      opts.Logger.With("component", "client"),
	}
}

// FromConfig 使用 backend 配置段创建客户端。
func FromConfig(cfg config.BackendConfig, logger *slog.Logger) *Client {
	return New(Options{
		BaseURL:          cfg.BaseURL,
		Timeout:          cfg.Timeout,
		MaxAttempts:      cfg.RetryMaxAttempts,
		RetryDelay:       cfg.RetryDelay,
		RetryStatusCodes: cfg.RetryStatusCodes,
		Logger:           logger,
	})
}

// SetToken 设置随后请求携带的访问令牌；空串表示清除。
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Invoke 执行一条命令，把结果解码到 out（可为 nil）。
// 幂等命令在网络错误或可重试状态码上按线性退避重试；非幂等命令只发送一次。
func (c *Client) Invoke(ctx context.Context, command string, params any, out any) error {
	body, err := encodeParams(params)
	if err != nil {
		return fmt.Errorf("%s: encode params: %w", command, err)
	}

	attempts := c.maxAttempts
	if !Idempotent(command) {
		attempts = 1
	}
	policy := backoff.WithContext(&linearBackOff{step: c.retryDelay, attempts: attempts}, ctx)

	var raw []byte
	operation := func() error {
		var opErr error
		raw, opErr = c.do(ctx, command, body)
		if opErr == nil {
			return nil
		}
		if !c.retryable(opErr) {
			return backoff.Permanent(opErr)
		}
		return opErr
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("command failed, retrying", "command", command, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) || errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%s: %w: %w", command, ErrUnavailable, err)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", command, err)
	}
	return nil
}

// Health 检查后端是否可达。
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, command string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/invoke/"+command, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Command: command, StatusCode: resp.StatusCode, Message: decodeMessage(raw, resp.Status)}
	}
	return raw, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Version", clientVersion)
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return slices.Contains(c.retryCodes, apiErr.StatusCode)
	}
	// 其余都是传输层错误：连接失败、超时、读响应中断。
	return true
}

// linearBackOff 第 n 次重试前等待 step × n，总尝试次数为 attempts。
type linearBackOff struct {
	step     time.Duration
	attempts int
	retries  int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	if b.retries+1 >= b.attempts {
		return backoff.Stop
	}
	b.retries++
	return time.Duration(b.retries) * b.step
}

func (b *linearBackOff) Reset() { b.retries = 0 }

// Idempotent 判断命令能否安全重发。
func Idempotent(command string) bool {
	switch command {
	case "launch_browser", "stop_browser", "batch_launch_browsers", "batch_stop_browsers",
		"empty_recycle_bin", "auth_register", "license_activate":
		return false
	}
	for _, prefix := range []string{"create_", "delete_", "batch_delete_", "permanently_delete_", "batch_permanently_delete_"} {
		if strings.HasPrefix(command, prefix) {
			return false
		}
	}
	return !strings.Contains(command, "duplicate")
}

func encodeParams(params any) ([]byte, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return p, nil
	}
	return json.Marshal(params)
}

var wirePrefixes = []string{"Error: ", "error: ", "api: ", "service: "}

// decodeMessage 提取 {"error": "..."} 并去掉传输层前缀。
func decodeMessage(raw []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	msg := fallback
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		msg = text
	}
	return stripPrefixes(msg)
}

func stripPrefixes(msg string) string {
	for {
		trimmed := msg
		for _, prefix := range wirePrefixes {
			trimmed = strings.TrimPrefix(trimmed, prefix)
		}
		if trimmed == msg {
			return strings.TrimSpace(msg)
		}
		msg = trimmed
	}
}
