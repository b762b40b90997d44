// 文件路径: internal/orchestrator/state.go
// 模块说明: 客户端显式应用状态。每个集合各有一条串行更新队列，读取方只拿到副本。
package orchestrator

import (
	"context"
	"slices"
	"sync"

	"github.com/creamcroissant/fpbrowser/internal/async"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
)

const queueBacklog = 128

// collection 是按 id 索引、保持顺序的缓存。所有写入经过 queue 串行执行。
type collection[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) string
	clone func(T) T
	queue *async.SerialQueue
}

func newCollection[T any](id func(T) string, clone func(T) T) *collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &collection[T]{id: id, clone: clone, queue: async.NewSerialQueue(queueBacklog)}
}

// apply 在队列上执行 fn 并等待完成。
func (c *collection[T]) apply(ctx context.Context, fn func(items []T) []T) error {
	return c.queue.Do(ctx, func() {
		c.mu.Lock()
		c.items = fn(c.items)
		c.mu.Unlock()
	})
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, c.clone(item))
	}
	return out
}

func (c *collection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(c.items, id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *collection[T]) index(items []T, id string) int {
	return slices.IndexFunc(items, func(item T) bool { return c.id(item) == id })
}

func (c *collection[T]) replace(ctx context.Context, items []T) error {
	fresh := make([]T, 0, len(items))
	for _, item := range items {
		fresh = append(fresh, c.clone(item))
	}
	return c.apply(ctx, func([]T) []T { return fresh })
}

// upsert 替换同 id 条目；不存在时 prepend 为 true 插到最前，否则追加。
func (c *collection[T]) upsert(ctx context.Context, item T, prepend bool) error {
	item = c.clone(item)
	return c.apply(ctx, func(items []T) []T {
		if i := c.index(items, c.id(item)); i >= 0 {
			items[i] = item
			return items
		}
		if prepend {
			return slices.Insert(items, 0, item)
		}
		return append(items, item)
	})
}

func (c *collection[T]) remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.apply(ctx, func(items []T) []T {
		return slices.DeleteFunc(items, func(item T) bool { return slices.Contains(ids, c.id(item)) })
	})
}

// patch 就地修改已存在的条目，不存在时忽略。
func (c *collection[T]) patch(ctx context.Context, id string, fn func(*T)) error {
	return c.apply(ctx, func(items []T) []T {
		if i := c.index(items, id); i >= 0 {
			fn(&items[i])
		}
		return items
	})
}

func (c *collection[T]) close() {
	c.queue.Close()
}

// AppState 汇总客户端缓存：窗口、分组、标签、代理与启动进度。
type AppState struct {
	profiles *collection[domain.Profile]
	groups   *collection[domain.Group]
	tags     *collection[domain.Tag]
	proxies  *collection[domain.Proxy]
	progress *LaunchProgress

	errMu      sync.RWMutex
	lastErrors map[string]string
}

// NewAppState 创建空状态。
func NewAppState() *AppState {
	return &AppState{
		profiles:   newCollection(func(p domain.Profile) string { return p.ID }, domain.Profile.Clone),
		groups:     newCollection(func(g domain.Group) string { return g.ID }, nil),
		tags:       newCollection(func(t domain.Tag) string { return t.ID }, nil),
		proxies:    newCollection(func(p domain.Proxy) string { return p.ID }, nil),
		progress:   NewLaunchProgress(),
		lastErrors: make(map[string]string),
	}
}

// Close 停止所有更新队列，已入队的更新会先执行完。
func (s *AppState) Close() {
	s.profiles.close()
	s.groups.close()
	s.tags.close()
	s.proxies.close()
}

func (s *AppState) Profiles() []domain.Profile { return s.profiles.snapshot() }

func (s *AppState) Profile(id string) (domain.Profile, bool) { return s.profiles.get(id) }

func (s *AppState) Groups() []domain.Group { return s.groups.snapshot() }

func (s *AppState) Group(id string) (domain.Group, bool) { return s.groups.get(id) }

func (s *AppState) Tags() []domain.Tag { return s.tags.snapshot() }

func (s *AppState) Proxies() []domain.Proxy { return s.proxies.snapshot() }

func (s *AppState) Proxy(id string) (domain.Proxy, bool) { return s.proxies.get(id) }

// Progress 返回启动进度跟踪器。
func (s *AppState) Progress() *LaunchProgress { return s.progress }

// LastError 返回窗口最近一次 browser:error 的信息。
func (s *AppState) LastError(id string) string {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.lastErrors[id]
}

func (s *AppState) setLastError(id, msg string) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if msg == "" {
		delete(s.lastErrors, id)
		return
	}
	s.lastErrors[id] = msg
}

// LaunchProgress 按窗口 id 记录最近一次启动进度。
type LaunchProgress struct {
	mu    sync.RWMutex
	steps map[string]events.LaunchProgressPayload
}

func NewLaunchProgress() *LaunchProgress {
	return &LaunchProgress{steps: make(map[string]events.LaunchProgressPayload)}
}

// Record 保存进度；done 步骤表示启动结束，条目随即移除。
func (p *LaunchProgress) Record(payload events.LaunchProgressPayload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if payload.Step == events.StepDone {
		delete(p.steps, payload.ProfileID)
		return
	}
	p.steps[payload.ProfileID] = payload
}

// Get 返回窗口当前的启动进度。
func (p *LaunchProgress) Get(id string) (events.LaunchProgressPayload, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	payload, ok := p.steps[id]
	return payload, ok
}

// Percent 返回 0-100 的进度；没有进度记录时为 0。
func (p *LaunchProgress) Percent(id string) int {
	payload, ok := p.Get(id)
	if !ok || payload.Total == 0 {
		return 0
	}
	return payload.Index * 100 / payload.Total
}

func (p *LaunchProgress) Clear(id string) {
	p.mu.Lock()
	delete(p.steps, id)
	p.mu.Unlock()
}
