package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.handleConfirm(msg)
		}
		if m.filtering {
			return m.handleFilterInput(msg)
		}
		return m.handleKey(msg)

	case syncedMsg:
		m.busy = max(m.busy-1, 0)
		m.err = msg.err
		m.snapshot()
		return m, nil

	case binLoadedMsg:
		m.busy = max(m.busy-1, 0)
		m.err = msg.err
		m.snapshot()
		return m, nil

	case actionDoneMsg:
		m.busy = max(m.busy-1, 0)
		m.err = msg.err
		if msg.err == nil {
			m.notice = msg.notice
		}
		m.snapshot()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		// 状态由事件流异步更新，这里只重读快照
		m.snapshot()
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		return m.move(-1), nil
	case key.Matches(msg, m.keys.Down):
		return m.move(1), nil
	case key.Matches(msg, m.keys.Back):
		return m.handleBack()
	case key.Matches(msg, m.keys.Refresh):
		return m.handleRefresh()
	}

	switch m.view {
	case ViewProfiles, ViewDetail:
		return m.handleProfileKey(msg)
	case ViewRecycleBin:
		return m.handleBinKey(msg)
	case ViewProxies:
		return m.handleProxyKey(msg)
	}
	return m, nil
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		if p, ok := m.currentProfile(); ok && m.view == ViewProfiles {
			m.view = ViewDetail
			m.detailID = p.ID
		}
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		if m.view == ViewProfiles {
			m.filtering = true
		}
		return m, nil
	case key.Matches(msg, m.keys.Bin):
		m.view = ViewRecycleBin
		m.busy++
		return m, m.loadBin()
	case key.Matches(msg, m.keys.Proxies):
		m.view = ViewProxies
		return m, nil
	}

	p, ok := m.currentProfile()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Launch):
		return m.run(m.tr("tui.notice.launched", p.Name), func(ctx context.Context) error {
			_, err := m.orch.Profiles.Launch(ctx, p.ID)
			return err
		})
	case key.Matches(msg, m.keys.Stop):
		return m.run(m.tr("tui.notice.stopped", p.Name), func(ctx context.Context) error {
			return m.orch.Profiles.Stop(ctx, p.ID)
		})
	case key.Matches(msg, m.keys.Delete):
		m.confirm = &confirmation{
			prompt: m.tr("tui.confirm.delete", p.Name),
			run: m.action(m.tr("tui.notice.deleted", p.Name), func(ctx context.Context) error {
				return m.orch.Profiles.Delete(ctx, p.ID)
			}),
		}
		if m.view == ViewDetail {
			m.view = ViewProfiles
		}
	}
	return m, nil
}

func (m Model) handleBinKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	bin := m.orch.Bin
	switch {
	case key.Matches(msg, m.keys.Profiles), key.Matches(msg, m.keys.Bin):
		m.view = ViewProfiles
		return m, nil
	case key.Matches(msg, m.keys.Left):
		page, _, _ := bin.Page()
		bin.SetPage(page - 1)
		m.prefs.LastPage, _, _ = bin.Page()
		m.snapshot()
		return m, nil
	case key.Matches(msg, m.keys.Right):
		page, _, _ := bin.Page()
		bin.SetPage(page + 1)
		m.prefs.LastPage, _, _ = bin.Page()
		m.snapshot()
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if len(m.bin) > 0 {
			id := m.bin[m.selectedBin].ID
			bin.Select(id, !m.isSelected(id))
		}
		return m, nil
	case key.Matches(msg, m.keys.Empty):
		if len(bin.List()) == 0 {
			return m, nil
		}
		m.confirm = &confirmation{
			prompt: m.tr("tui.confirm.empty", len(bin.List())),
			run: m.action(m.tr("tui.notice.emptied"), func(ctx context.Context) error {
				_, err := bin.Empty(ctx)
				return err
			}),
		}
		return m, nil
	}

	ids := m.binTargets()
	if len(ids) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Restore):
		return m.run(m.tr("tui.notice.restored", len(ids)), func(ctx context.Context) error {
			res, err := bin.BatchRestore(ctx, ids)
			if err != nil {
				return err
			}
			return batchError(res.FailureCount, len(ids))
		})
	case key.Matches(msg, m.keys.Purge):
		m.confirm = &confirmation{
			prompt: m.tr("tui.confirm.purge", len(ids)),
			run: m.action(m.tr("tui.notice.purged", len(ids)), func(ctx context.Context) error {
				res, err := bin.BatchPermanentlyDelete(ctx, ids)
				if err != nil {
					return err
				}
				return batchError(res.FailureCount, len(ids))
			}),
		}
	}
	return m, nil
}

func (m Model) handleProxyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Profiles), key.Matches(msg, m.keys.Proxies):
		m.view = ViewProfiles
		return m, nil
	case key.Matches(msg, m.keys.TestAll):
		return m.run(m.tr("tui.notice.tested_all"), func(ctx context.Context) error {
			_, err := m.orch.Proxies.TestAll(ctx)
			return err
		})
	case key.Matches(msg, m.keys.Test):
		if len(m.proxies) == 0 {
			return m, nil
		}
		p := m.proxies[m.selectedProxy]
		return m.run(m.tr("tui.notice.tested", p.Name), func(ctx context.Context) error {
			res, err := m.orch.Proxies.Test(ctx, p.ID)
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("proxy %s: %s", p.Name, res.Error)
			}
			return nil
		})
	}
	return m, nil
}

func (m Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		run := m.confirm.run
		m.confirm = nil
		m.busy++
		return m, run
	case key.Matches(msg, m.keys.No), key.Matches(msg, m.keys.Quit):
		m.confirm = nil
		m.notice = m.tr("tui.cancelled")
	}
	return m, nil
}

// handleFilterInput 处理过滤输入：enter 确认，esc 清空。
func (m Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyEsc:
		m.filtering = false
		m.filter = ""
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.filter = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filter += string(msg.Runes)
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	m.selectedProfile = 0
	m.snapshot()
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewDetail:
		m.view = ViewProfiles
		m.detailID = ""
	case ViewRecycleBin:
		m.orch.Bin.ClearSelection()
		m.view = ViewProfiles
	case ViewProxies:
		m.view = ViewProfiles
	case ViewProfiles:
		if m.filter != "" {
			m.filter = ""
			m.snapshot()
		}
	}
	return m, nil
}

func (m Model) handleRefresh() (tea.Model, tea.Cmd) {
	m.busy++
	m.notice = ""
	if m.view == ViewRecycleBin {
		return m, m.loadBin()
	}
	return m, m.sync()
}

func (m Model) run(notice string, fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	m.busy++
	m.notice = ""
	return m, m.action(notice, fn)
}

func (m Model) move(delta int) Model {
	wrap := func(i, n int) int {
		if n == 0 {
			return 0
		}
		return ((i+delta)%n + n) % n
	}
	switch m.view {
	case ViewProfiles:
		m.selectedProfile = wrap(m.selectedProfile, len(m.profiles))
	case ViewRecycleBin:
		m.selectedBin = wrap(m.selectedBin, len(m.bin))
	case ViewProxies:
		m.selectedProxy = wrap(m.selectedProxy, len(m.proxies))
	}
	return m
}

// binTargets 有勾选时作用于勾选项，否则作用于光标所在项。
func (m Model) binTargets() []string {
	if ids := m.orch.Bin.Selected(); len(ids) > 0 {
		return ids
	}
	if len(m.bin) == 0 {
		return nil
	}
	return []string{m.bin[m.selectedBin].ID}
}

func (m Model) isSelected(id string) bool {
	for _, s := range m.orch.Bin.Selected() {
		if s == id {
			return true
		}
	}
	return false
}

func batchError(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d failed", failed, total)
}
