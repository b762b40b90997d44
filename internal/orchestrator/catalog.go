// 文件路径: internal/orchestrator/catalog.go
// 模块说明: 分组、标签与代理条目的缓存和增删改，proxy:* 与 tag:* 事件在这里对账。
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

// CatalogService 是 Catalog 依赖的后端命令。
type CatalogService interface {
	CatalogBackend
	GetProxies(ctx context.Context) ([]domain.Proxy, error)
	CreateProxy(ctx context.Context, input domain.CreateProxyInput) (*domain.Proxy, error)
	UpdateProxy(ctx context.Context, id string, input domain.UpdateProxyInput) (*domain.Proxy, error)
	DeleteProxy(ctx context.Context, id string) error
	SetProxyAutoCheck(ctx context.Context, id string, enabled bool) error
}

// Catalog 维护窗口之外的辅助实体缓存。
type Catalog struct {
	backend CatalogService
	state   *AppState
	logger  *slog.Logger
}

func NewCatalog(backend CatalogService, state *AppState, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{backend: backend, state: state, logger: logger.With("component", "catalog")}
}

// Refresh 全量拉取分组、标签与代理，任一失败都会返回，但其余集合仍会更新。
func (c *Catalog) Refresh(ctx context.Context) error {
	var errs []error
	if groups, err := c.backend.GetGroups(ctx); err != nil {
		errs = append(errs, fmt.Errorf("refresh groups: %w", err))
	} else {
		errs = append(errs, c.state.groups.replace(context.WithoutCancel(ctx), groups))
	}
	if tags, err := c.backend.GetTags(ctx); err != nil {
		errs = append(errs, fmt.Errorf("refresh tags: %w", err))
	} else {
		errs = append(errs, c.state.tags.replace(context.WithoutCancel(ctx), tags))
	}
	if proxies, err := c.backend.GetProxies(ctx); err != nil {
		errs = append(errs, fmt.Errorf("refresh proxies: %w", err))
	} else {
		errs = append(errs, c.state.proxies.replace(context.WithoutCancel(ctx), proxies))
	}
	return errors.Join(errs...)
}

// ---- groups ----

func (c *Catalog) CreateGroup(ctx context.Context, input domain.CreateGroupInput) (*domain.Group, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	g, err := c.backend.CreateGroup(ctx, input)
	if err != nil {
		return nil, err
	}
	return g, c.state.groups.upsert(context.WithoutCancel(ctx), *g, false)
}

func (c *Catalog) UpdateGroup(ctx context.Context, id string, input domain.UpdateGroupInput) (*domain.Group, error) {
	g, err := c.backend.UpdateGroup(ctx, id, input)
	if err != nil {
		return nil, err
	}
	return g, c.state.groups.upsert(context.WithoutCancel(ctx), *g, false)
}

// DeleteGroup 默认分组与仍有窗口的分组在本地直接拒绝。
func (c *Catalog) DeleteGroup(ctx context.Context, id string) error {
	if id == domain.DefaultGroupID {
		return ErrDefaultGroup
	}
	if g, ok := c.state.Group(id); ok && g.ProfileCount > 0 {
		return ErrGroupNotEmpty
	}
	if err := c.backend.DeleteGroup(ctx, id); err != nil {
		return err
	}
	return c.state.groups.remove(context.WithoutCancel(ctx), id)
}

// ---- tags ----

func (c *Catalog) CreateTag(ctx context.Context, input domain.CreateTagInput) (*domain.Tag, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	t, err := c.backend.CreateTag(ctx, input)
	if err != nil {
		return nil, err
	}
	return t, c.state.tags.upsert(context.WithoutCancel(ctx), *t, false)
}

func (c *Catalog) UpdateTag(ctx context.Context, id string, input domain.UpdateTagInput) (*domain.Tag, error) {
	t, err := c.backend.UpdateTag(ctx, id, input)
	if err != nil {
		return nil, err
	}
	return t, c.state.tags.upsert(context.WithoutCancel(ctx), *t, false)
}

func (c *Catalog) DeleteTag(ctx context.Context, id string) error {
	if err := c.backend.DeleteTag(ctx, id); err != nil {
		return err
	}
	return c.state.tags.remove(context.WithoutCancel(ctx), id)
}

func (c *Catalog) ProfileTags(ctx context.Context, profileID string) ([]domain.Tag, error) {
	return c.backend.GetProfileTags(ctx, profileID)
}

// SetProfileTags 替换窗口的标签集合，随后刷新标签计数。
func (c *Catalog) SetProfileTags(ctx context.Context, profileID string, tagIDs []string) error {
	if err := c.backend.SetProfileTags(ctx, profileID, dedupe(tagIDs)); err != nil {
		return err
	}
	tags, err := c.backend.GetTags(ctx)
	if err != nil {
		c.logger.Warn("refresh tags failed", "error", err)
		return nil
	}
	return c.state.tags.replace(context.WithoutCancel(ctx), tags)
}

// ---- proxies ----

func (c *Catalog) CreateProxy(ctx context.Context, input domain.CreateProxyInput) (*domain.Proxy, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Type != domain.ProxyDirect && (strings.TrimSpace(input.Host) == "" || input.Port == 0) {
		return nil, fmt.Errorf("%w: host and port are required", ErrInvalidProxy)
	}
	p, err := c.backend.CreateProxy(ctx, input)
	if err != nil {
		return nil, err
	}
	return p, c.state.proxies.upsert(context.WithoutCancel(ctx), *p, false)
}

func (c *Catalog) UpdateProxy(ctx context.Context, id string, input domain.UpdateProxyInput) (*domain.Proxy, error) {
	p, err := c.backend.UpdateProxy(ctx, id, input)
	if err != nil {
		return nil, err
	}
	return p, c.state.proxies.upsert(context.WithoutCancel(ctx), *p, false)
}

func (c *Catalog) DeleteProxy(ctx context.Context, id string) error {
	if err := c.backend.DeleteProxy(ctx, id); err != nil {
		return err
	}
	return c.state.proxies.remove(context.WithoutCancel(ctx), id)
}

func (c *Catalog) SetProxyAutoCheck(ctx context.Context, id string, enabled bool) error {
	if err := c.backend.SetProxyAutoCheck(ctx, id, enabled); err != nil {
		return err
	}
	return c.state.proxies.patch(context.WithoutCancel(ctx), id, func(p *domain.Proxy) { p.AutoCheck = enabled })
}

// HandleEvent 合并 proxy:* 与 tag:* 事件，重复投递结果不变。
func (c *Catalog) HandleEvent(ctx context.Context, evt events.Event) error {
	ctx = context.WithoutCancel(ctx)
	switch evt.Name {
	case events.ProxyCreated, events.ProxyUpdated:
		var dto wire.ProxyEntityDTO
		if err := evt.Decode(&dto); err != nil {
			return err
		}
		return c.state.proxies.upsert(ctx, wire.ProxyFromWire(dto), false)
	case events.ProxyDeleted:
		var payload events.IDPayload
		if err := evt.Decode(&payload); err != nil {
			return err
		}
		return c.state.proxies.remove(ctx, payload.ID)
	case events.TagCreated, events.TagUpdated:
		var dto wire.TagDTO
		if err := evt.Decode(&dto); err != nil {
			return err
		}
		return c.state.tags.upsert(ctx, wire.TagFromWire(dto), false)
	case events.TagDeleted:
		var payload events.IDPayload
		if err := evt.Decode(&payload); err != nil {
			return err
		}
		return c.state.tags.remove(ctx, payload.ID)
	}
	return nil
}
