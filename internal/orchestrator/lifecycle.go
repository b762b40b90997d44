// 文件路径: internal/orchestrator/lifecycle.go
// 模块说明: 窗口生命周期编排。校验在调用后端之前完成；启动/关闭带显式过渡状态，同一窗口的操作串行执行。
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/async"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/fingerprint"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

// Lifecycle 驱动窗口的创建、更新、删除、启动与关闭，并维护窗口缓存。
type Lifecycle struct {
	backend ProfileBackend
	state   *AppState
	locks   *async.KeyedMutex
	logger  *slog.Logger
	now     func() time.Time
}

// NewLifecycle 创建生命周期编排器。
func NewLifecycle(backend ProfileBackend, state *AppState, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		backend: backend,
		state:   state,
		locks:   async.NewKeyedMutex(),
		logger:  logger.With("component", "lifecycle"),
		now:     time.Now,
	}
}

// Refresh 全量拉取窗口列表并替换缓存。
func (l *Lifecycle) Refresh(ctx context.Context) error {
	profiles, err := l.backend.GetProfiles(ctx, wire.ProfileQuery{})
	if err != nil {
		return fmt.Errorf("refresh profiles: %w", err)
	}
	return l.state.profiles.replace(context.WithoutCancel(ctx), profiles)
}

// Fetch 从后端读取单个窗口并写入缓存。
func (l *Lifecycle) Fetch(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := l.backend.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.state.profiles.upsert(context.WithoutCancel(ctx), *p, false); err != nil {
		return nil, err
	}
	return p, nil
}

// Create 过滤并校验指纹后提交，新窗口插到列表最前。
func (l *Lifecycle) Create(ctx context.Context, input domain.CreateProfileInput) (*domain.Profile, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Fingerprint != nil {
		patch, err := sanitizePatch(input.Fingerprint)
		if err != nil {
			return nil, err
		}
		input.Fingerprint = patch
	}

	p, err := l.backend.CreateProfile(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := l.state.profiles.upsert(context.WithoutCancel(ctx), *p, true); err != nil {
		return nil, err
	}
	l.logger.Info("profile created", "profile_id", p.ID)
	return p, nil
}

// Update 只提交改动过的指纹字段，成功后全量刷新缓存。
func (l *Lifecycle) Update(ctx context.Context, id string, input domain.UpdateProfileInput) (*domain.Profile, error) {
	unlock := l.locks.Lock(id)
	defer unlock()

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		input.Name = &name
	}
	if input.Fingerprint != nil {
		patch, err := sanitizePatch(input.Fingerprint)
		if err != nil {
			return nil, err
		}
		input.Fingerprint = l.minimalPatch(id, patch)
	}

	updated, err := l.backend.UpdateProfile(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if err := l.Refresh(ctx); err != nil {
		l.logger.Warn("refetch after update failed", "profile_id", id, "error", err)
		if err := l.state.profiles.upsert(context.WithoutCancel(ctx), *updated, false); err != nil {
			return nil, err
		}
	}
	if p, ok := l.state.Profile(id); ok {
		return &p, nil
	}
	return updated, nil
}

// minimalPatch 与缓存中的指纹比较，去掉未变化的字段；全部未变时返回 nil。
func (l *Lifecycle) minimalPatch(id string, patch fingerprint.Patch) fingerprint.Patch {
	cached, ok := l.state.Profile(id)
	if !ok {
		return patch
	}
	current, err := cached.Fingerprint.ToMap()
	if err != nil {
		return patch
	}
	return fingerprint.Diff(current, patch)
}

// Delete 把窗口移入回收站。运行中的窗口在本地被拒绝，不会调用后端。
func (l *Lifecycle) Delete(ctx context.Context, id string) error {
	unlock := l.locks.Lock(id)
	defer unlock()

	if l.busy(id) {
		return ErrProfileRunning
	}
	if err := l.backend.DeleteProfile(ctx, id); err != nil {
		return err
	}
	l.forget(ctx, id)
	return nil
}

// BatchDelete 运行中的窗口直接记为失败，其余交给后端；只有成功项从缓存移除。
func (l *Lifecycle) BatchDelete(ctx context.Context, ids []string) (domain.BatchResult, error) {
	ids = dedupe(ids)
	unlock := l.lockAll(ids)
	defer unlock()

	local := make(map[string]domain.BatchItem)
	var submit []string
	for _, id := range ids {
		if l.busy(id) {
			local[id] = domain.Fail(id, ErrProfileRunning)
			continue
		}
		submit = append(submit, id)
	}

	if len(submit) > 0 {
		res, err := l.backend.BatchDeleteProfiles(ctx, submit)
		if err != nil {
			return domain.BatchResult{}, err
		}
		for _, item := range res.Results {
			local[item.ProfileID] = item
		}
	}
	result := collect(ids, local)
	for _, id := range result.SucceededIDs() {
		l.forget(ctx, id)
	}
	return result, nil
}

// BatchDuplicate 复制窗口；有成功项时刷新缓存以拿到新 id。
func (l *Lifecycle) BatchDuplicate(ctx context.Context, ids []string) (domain.BatchResult, error) {
	res, err := l.backend.BatchDuplicateProfiles(ctx, dedupe(ids))
	if err != nil {
		return domain.BatchResult{}, err
	}
	if res.SuccessCount > 0 {
		if err := l.Refresh(ctx); err != nil {
			l.logger.Warn("refetch after duplicate failed", "error", err)
		}
	}
	return res, nil
}

// BatchMoveToGroup 移动分组，只有成功项更新本地分组。
func (l *Lifecycle) BatchMoveToGroup(ctx context.Context, ids []string, group string) (domain.BatchResult, error) {
	res, err := l.backend.BatchMoveToGroup(ctx, dedupe(ids), group)
	if err != nil {
		return domain.BatchResult{}, err
	}
	for _, id := range res.SucceededIDs() {
		l.patch(ctx, id, func(p *domain.Profile) { p.Group = group })
	}
	return res, nil
}

// Launch 先置为 launching，后端确认后置为 running；失败置为 error 并返回错误。
// 已在运行的窗口直接返回。
func (l *Lifecycle) Launch(ctx context.Context, id string) (*domain.Profile, error) {
	unlock := l.locks.Lock(id)
	defer unlock()

	if cached, ok := l.state.Profile(id); ok && cached.Status == domain.StatusRunning {
		return &cached, nil
	}
	l.setStatus(ctx, id, domain.StatusLaunching)

	p, err := l.backend.LaunchBrowser(ctx, id)
	if err != nil {
		l.failed(ctx, id, err)
		return nil, err
	}
	p.Status = domain.StatusRunning
	if p.LastOpenTime == nil {
		opened := l.now().UTC()
		p.LastOpenTime = &opened
	}
	if err := l.state.profiles.upsert(context.WithoutCancel(ctx), *p, true); err != nil {
		return nil, err
	}
	l.state.setLastError(id, "")
	l.state.progress.Clear(id)
	return p, nil
}

// Stop 先置为 stopping，成功后置为 stopped；已停止的窗口直接返回。
func (l *Lifecycle) Stop(ctx context.Context, id string) error {
	unlock := l.locks.Lock(id)
	defer unlock()

	if cached, ok := l.state.Profile(id); ok && cached.Status == domain.StatusStopped {
		return nil
	}
	l.setStatus(ctx, id, domain.StatusStopping)

	if err := l.backend.StopBrowser(ctx, id); err != nil {
		l.failed(ctx, id, err)
		return err
	}
	l.setStatus(ctx, id, domain.StatusStopped)
	l.state.progress.Clear(id)
	return nil
}

// BatchLaunch 批量启动，只有成功项在本地置为 running。
func (l *Lifecycle) BatchLaunch(ctx context.Context, ids []string) (domain.BatchResult, error) {
	return l.batchStatus(ctx, ids, l.backend.BatchLaunchBrowsers, domain.StatusRunning)
}

// BatchStop 批量关闭，只有成功项在本地置为 stopped。
func (l *Lifecycle) BatchStop(ctx context.Context, ids []string) (domain.BatchResult, error) {
	return l.batchStatus(ctx, ids, l.backend.BatchStopBrowsers, domain.StatusStopped)
}

func (l *Lifecycle) batchStatus(ctx context.Context, ids []string, call func(context.Context, []string) (domain.BatchResult, error), status domain.ProfileStatus) (domain.BatchResult, error) {
	ids = dedupe(ids)
	unlock := l.lockAll(ids)
	defer unlock()

	res, err := call(ctx, ids)
	if err != nil {
		return domain.BatchResult{}, err
	}
	for _, id := range res.SucceededIDs() {
		l.setStatus(ctx, id, status)
	}
	return res, nil
}

// Filter 按状态、分组与关键字（名称、id、备注，不区分大小写）筛选缓存。
func (l *Lifecycle) Filter(f domain.ProfileFilter) []domain.Profile {
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	var out []domain.Profile
	for _, p := range l.state.Profiles() {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Group != "" && p.Group != f.Group {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.ID), keyword) &&
			!strings.Contains(strings.ToLower(p.Remark), keyword) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ByGroup 返回某个分组下的窗口。
func (l *Lifecycle) ByGroup(group string) []domain.Profile {
	return l.Filter(domain.ProfileFilter{Group: group})
}

// HandleEvent 把推送事件合并进缓存。重复投递同一事件结果不变。
func (l *Lifecycle) HandleEvent(ctx context.Context, evt events.Event) error {
	ctx = context.WithoutCancel(ctx)
	switch evt.Name {
	case events.ProfileCreated, events.ProfileUpdated:
		var dto wire.ProfileDTO
		if err := evt.Decode(&dto); err != nil {
			return err
		}
		p, err := wire.ProfileFromWire(dto)
		if err != nil {
			return err
		}
		return l.state.profiles.upsert(ctx, p, true)
	case events.ProfileDeleted:
		var payload events.IDPayload
		if err := evt.Decode(&payload); err != nil {
			return err
		}
		l.forget(ctx, payload.ID)
	case events.ProfileStatusChanged:
		var payload events.StatusChangedPayload
		if err := evt.Decode(&payload); err != nil {
			return err
		}
		status := domain.ProfileStatus(payload.Status)
		if !status.Valid() {
			return fmt.Errorf("unknown profile status %q", payload.Status)
		}
		l.setStatus(ctx, payload.ProfileID, status)
		switch status {
		case domain.StatusRunning:
			l.state.setLastError(payload.ProfileID, "")
			l.state.progress.Clear(payload.ProfileID)
		case domain.StatusStopped:
			l.state.progress.Clear(payload.ProfileID)
		}
	case events.BrowserError:
		var payload events.BrowserErrorPayload
		if err := evt.Decode(&payload); err != nil {
			return err
		}
		l.setStatus(ctx, payload.ProfileID, domain.StatusError)
		l.state.setLastError(payload.ProfileID, payload.Error)
		l.state.progress.Clear(payload.ProfileID)
	case events.BrowserLaunchProgress:
		var payload events.LaunchProgressPayload
		if err := evt.Decode(&payload); err != nil {
			return err
		}
		l.state.progress.Record(payload)
	}
	return nil
}

// busy 判断窗口在本地是否处于运行或过渡状态。
func (l *Lifecycle) busy(id string) bool {
	p, ok := l.state.Profile(id)
	return ok && (p.Status == domain.StatusRunning || p.Status.Pending())
}

func (l *Lifecycle) failed(ctx context.Context, id string, err error) {
	if errors.Is(err, context.Canceled) {
		// 调用方放弃等待，后端仍会完成操作，最终状态由事件对账。
		return
	}
	l.logger.Warn("browser operation failed", "profile_id", id, "error", err)
	l.setStatus(ctx, id, domain.StatusError)
	l.state.setLastError(id, err.Error())
	l.state.progress.Clear(id)
}

func (l *Lifecycle) setStatus(ctx context.Context, id string, status domain.ProfileStatus) {
	l.patch(ctx, id, func(p *domain.Profile) {
		p.Status = status
		if status == domain.StatusRunning && p.LastOpenTime == nil {
			opened := l.now().UTC()
			p.LastOpenTime = &opened
		}
	})
}

func (l *Lifecycle) patch(ctx context.Context, id string, fn func(*domain.Profile)) {
	if err := l.state.profiles.patch(context.WithoutCancel(ctx), id, fn); err != nil {
		l.logger.Warn("update profile cache failed", "profile_id", id, "error", err)
	}
}

func (l *Lifecycle) forget(ctx context.Context, id string) {
	if err := l.state.profiles.remove(context.WithoutCancel(ctx), id); err != nil {
		l.logger.Warn("remove profile from cache failed", "profile_id", id, "error", err)
	}
	l.state.progress.Clear(id)
	l.state.setLastError(id, "")
}

// lockAll 按排序后的顺序对多个 id 加锁，避免交叉加锁导致死锁。
func (l *Lifecycle) lockAll(ids []string) func() {
	sorted := slices.Sorted(slices.Values(ids))
	unlocks := make([]func(), 0, len(sorted))
	for _, id := range sorted {
		unlocks = append(unlocks, l.locks.Lock(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// sanitizePatch 黑名单命中时整体拒绝，否则只保留白名单字段。
func sanitizePatch(patch map[string]any) (fingerprint.Patch, error) {
	if err := fingerprint.Validate(patch); err != nil {
		return nil, err
	}
	return fingerprint.FilterWhitelist(maps.Clone(patch)), nil
}

// collect 按入参顺序组装批量结果。
func collect(ids []string, items map[string]domain.BatchItem) domain.BatchResult {
	ordered := make([]domain.BatchItem, 0, len(ids))
	for _, id := range ids {
		item, ok := items[id]
		if !ok {
			item = domain.BatchItem{ProfileID: id, Error: "no result"}
		}
		ordered = append(ordered, item)
	}
	return domain.NewBatchResult(ordered)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
