// 文件路径: internal/api/dispatcher.go
// 模块说明: 命令分发表。每个 IPC 命令名对应一个处理函数，参数为原始 JSON。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownCommand 表示命令名未注册。
	ErrUnknownCommand = errors.New("api: unknown command / 未知命令")
	// ErrBadParams 表示命令参数无法解码。
	ErrBadParams = errors.New("api: invalid params / 参数格式错误")
)

// CommandFunc 处理一条命令，返回值会被编码为响应体。
type CommandFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Dispatcher 维护命令名到处理函数的映射。
type Dispatcher struct {
	mu       sync.RWMutex
	commands map[string]CommandFunc
}

// NewDispatcher 创建空的分发表。
func NewDispatcher() *Dispatcher {
	return &Dispatcher{commands: make(map[string]CommandFunc)}
}

// Register 注册命令；重复注册会覆盖旧的处理函数。
func (d *Dispatcher) Register(name string, fn CommandFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[name] = fn
}

// Invoke 执行命令。
func (d *Dispatcher) Invoke(ctx context.Context, name string, params json.RawMessage) (any, error) {
	d.mu.RLock()
	fn, ok := d.commands[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return fn(ctx, params)
}

// Has 判断命令是否已注册。
func (d *Dispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.commands[name]
	return ok
}

// Names 返回按字母排序的命令名。
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	d.mu.RUnlock()
	sort.Strings(names)
	return names
}

// bind 把参数解码为 T；空参数返回零值。
func bind[T any](params json.RawMessage) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadParams, err)
	}
	return v, nil
}

// handle 把带类型参数的函数适配为 CommandFunc。
func handle[T any](fn func(ctx context.Context, req T) (any, error)) CommandFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		req, err := bind[T](params)
		if err != nil {
			return nil, err
		}
		return fn(ctx, req)
	}
}

// noParams 适配不需要参数的命令。
func noParams(fn func(ctx context.Context) (any, error)) CommandFunc {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return fn(ctx)
	}
}
