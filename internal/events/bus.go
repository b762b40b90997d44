package events

import (
	"log/slog"
	"sync"
)

// Publisher 由需要推送事件的组件依赖。
type Publisher interface {
	Emit(name Name, payload any)
}

// Bus 是进程内的扇出广播器；订阅者缓冲区满时丢弃事件而不阻塞发布方。
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	logger *slog.Logger
}

// NewBus 创建事件总线。
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: make(map[int]chan Event), logger: logger}
}

// Subscribe 注册订阅者，返回事件通道与取消函数。
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish 向所有订阅者投递事件。
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.logger.Warn("event dropped, subscriber buffer full", "event", evt.Name, "subscriber", id)
		}
	}
}

// Emit 序列化载荷后发布。
func (b *Bus) Emit(name Name, payload any) {
	if b == nil {
		return
	}
	evt, err := New(name, payload)
	if err != nil {
		b.logger.Error("encode event failed", "event", name, "error", err)
		return
	}
	b.Publish(evt)
}

// Subscribers 返回当前订阅者数量。
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
