// 文件路径: internal/orchestrator/recycle_bin.go
// 模块说明: 回收站列表、分页与多选。破坏性操作需要 Confirmer 确认，用户拒绝不算错误。
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

const defaultBinPageSize = 20

// Confirmer 在执行破坏性操作前征求确认。
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc 把函数适配为 Confirmer。
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// AlwaysConfirm 用于非交互场景（例如命令行 --yes）。
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// RecycleBinOptions 配置回收站。
type RecycleBinOptions struct {
	Confirmer Confirmer
	PageSize  int
	// OnRestore 在有窗口被恢复后调用，一般用来刷新窗口列表。
	OnRestore func(ctx context.Context) error
	Logger    *slog.Logger
}

// RecycleBin 管理软删除的窗口。
type RecycleBin struct {
	backend   BinBackend
	confirm   Confirmer
	onRestore func(ctx context.Context) error
	logger    *slog.Logger

	mu       sync.RWMutex
	items    []domain.RecycledProfile
	selected map[string]struct{}
	page     int
	pageSize int
}

// NewRecycleBin 创建回收站；未配置 Confirmer 时所有破坏性操作都会被拒绝。
func NewRecycleBin(backend BinBackend, opts RecycleBinOptions) *RecycleBin {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Confirmer == nil {
		opts.Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultBinPageSize
	}
	return &RecycleBin{
		backend:   backend,
		confirm:   opts.Confirmer,
		onRestore: opts.OnRestore,
		logger:    opts.Logger.With("component", "recycle_bin"),
		selected:  make(map[string]struct{}),
		page:      1,
		pageSize:  opts.PageSize,
	}
}

// Load 从后端拉取回收站并修正当前页码。
func (b *RecycleBin) Load(ctx context.Context) ([]domain.RecycledProfile, error) {
	items, err := b.backend.GetRecycleBin(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recycle bin: %w", err)
	}
	b.mu.Lock()
	b.items = items
	b.prune()
	b.clampPage()
	b.mu.Unlock()
	return slices.Clone(items), nil
}

// List 返回最近一次加载的全部条目。
func (b *RecycleBin) List() []domain.RecycledProfile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

// Restore 恢复单个窗口，id、指纹与代理保持不变。
func (b *RecycleBin) Restore(ctx context.Context, id string) error {
	if err := b.backend.RestoreProfile(ctx, id); err != nil {
		return err
	}
	b.drop(id)
	b.restored(ctx)
	return nil
}

// BatchRestore 批量恢复，成功项离开回收站。
func (b *RecycleBin) BatchRestore(ctx context.Context, ids []string) (domain.BatchResult, error) {
	res, err := b.backend.BatchRestoreProfiles(ctx, dedupe(ids))
	if err != nil {
		return domain.BatchResult{}, err
	}
	b.drop(res.SucceededIDs()...)
	if res.SuccessCount > 0 {
		b.restored(ctx)
	}
	return res, nil
}

// PermanentlyDelete 彻底删除单个窗口；返回 false 表示用户取消。
func (b *RecycleBin) PermanentlyDelete(ctx context.Context, id string) (bool, error) {
	ok, err := b.ask(ctx, "彻底删除该窗口？此操作不可恢复。")
	if err != nil || !ok {
		return false, err
	}
	if err := b.backend.PermanentlyDeleteProfile(ctx, id); err != nil {
		return false, err
	}
	b.drop(id)
	return true, nil
}

// BatchPermanentlyDelete 批量彻底删除，完成后清空选择。用户取消时返回空结果。
func (b *RecycleBin) BatchPermanentlyDelete(ctx context.Context, ids []string) (domain.BatchResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return domain.NewBatchResult(nil), nil
	}
	ok, err := b.ask(ctx, fmt.Sprintf("彻底删除选中的 %d 个窗口？此操作不可恢复。", len(ids)))
	if err != nil || !ok {
		return domain.NewBatchResult(nil), err
	}
	res, err := b.backend.BatchPermanentlyDeleteProfiles(ctx, ids)
	if err != nil {
		return domain.BatchResult{}, err
	}
	b.drop(res.SucceededIDs()...)
	b.ClearSelection()
	return res, nil
}

// Empty 清空回收站并返回删除数量；用户取消时返回 0。
func (b *RecycleBin) Empty(ctx context.Context) (int64, error) {
	ok, err := b.ask(ctx, "清空回收站？所有窗口将被彻底删除。")
	if err != nil || !ok {
		return 0, err
	}
	n, err := b.backend.EmptyRecycleBin(ctx)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	b.items = nil
	b.page = 1
	b.mu.Unlock()
	b.ClearSelection()
	return n, nil
}

// Select 切换条目的选中状态。
func (b *RecycleBin) Select(id string, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if on {
		b.selected[id] = struct{}{}
		return
	}
	delete(b.selected, id)
}

// SelectPage 选中当前页全部条目。
func (b *RecycleBin) SelectPage() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range b.pageLocked() {
		b.selected[item.ID] = struct{}{}
	}
}

// Selected 按列表顺序返回已选中的 id。
func (b *RecycleBin) Selected() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.selected))
	for _, item := range b.items {
		if _, ok := b.selected[item.ID]; ok {
			out = append(out, item.ID)
		}
	}
	return out
}

func (b *RecycleBin) ClearSelection() {
	b.mu.Lock()
	clear(b.selected)
	b.mu.Unlock()
}

// SetPage 切换页码并清空选择。页码被限制在有效范围内。
func (b *RecycleBin) SetPage(page int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.page = min(max(page, 1), b.pagesLocked())
	clear(b.selected)
}

// SetPageSize 修改每页条数，回到第一页并清空选择。
func (b *RecycleBin) SetPageSize(size int) {
	if size <= 0 {
		size = defaultBinPageSize
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pageSize = size
	b.page = 1
	clear(b.selected)
}

// Page 返回当前页码、每页条数与当前页条目。
func (b *RecycleBin) Page() (int, int, []domain.RecycledProfile) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page, b.pageSize, slices.Clone(b.pageLocked())
}

// Pages 返回总页数，空列表视为 1 页。
func (b *RecycleBin) Pages() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pagesLocked()
}

func (b *RecycleBin) pagesLocked() int {
	if len(b.items) == 0 {
		return 1
	}
	return (len(b.items) + b.pageSize - 1) / b.pageSize
}

func (b *RecycleBin) pageLocked() []domain.RecycledProfile {
	start := (b.page - 1) * b.pageSize
	if start >= len(b.items) {
		return nil
	}
	end := min(start+b.pageSize, len(b.items))
	return b.items[start:end]
}

func (b *RecycleBin) ask(ctx context.Context, message string) (bool, error) {
	ok, err := b.confirm.Confirm(ctx, message)
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		b.logger.Debug("destructive action declined", "message", message)
	}
	return ok, nil
}

func (b *RecycleBin) drop(ids ...string) {
	if len(ids) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = slices.DeleteFunc(b.items, func(item domain.RecycledProfile) bool {
		return slices.Contains(ids, item.ID)
	})
	for _, id := range ids {
		delete(b.selected, id)
	}
	b.clampPage()
}

// clampPage 在列表缩短后把页码拉回有效范围；页码变化时清空选择。
func (b *RecycleBin) clampPage() {
	if last := b.pagesLocked(); b.page > last {
		b.page = last
		clear(b.selected)
	}
}

// prune 去掉已不在列表里的选中项。
func (b *RecycleBin) prune() {
	for id := range b.selected {
		if !slices.ContainsFunc(b.items, func(item domain.RecycledProfile) bool { return item.ID == id }) {
			delete(b.selected, id)
		}
	}
}

func (b *RecycleBin) restored(ctx context.Context) {
	if b.onRestore == nil {
		return
	}
	if err := b.onRestore(ctx); err != nil {
		b.logger.Warn("refresh after restore failed", "error", err)
	}
}
