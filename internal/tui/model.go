package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/fpbrowser/internal/clientstate"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/orchestrator"
	"github.com/creamcroissant/fpbrowser/internal/support/i18n"
)

// ViewType 表示当前视图
type ViewType int

const (
	ViewProfiles   ViewType = iota // 窗口列表
	ViewDetail                     // 窗口详情
	ViewRecycleBin                 // 回收站
	ViewProxies                    // 代理列表
)

const opTimeout = 90 * time.Second

// Model 是主 TUI 模型
type Model struct {
	ctx   context.Context
	orch  *orchestrator.Orchestrator
	prefs clientstate.State

	// 数据快照，来自 orchestrator 的只读副本
	profiles []domain.Profile
	bin      []domain.RecycledProfile
	proxies  []domain.Proxy

	selectedProfile int
	selectedBin     int
	selectedProxy   int

	view     ViewType
	detailID string

	// 关键词过滤
	filter    string
	filtering bool

	// 等待 y/n 的危险操作
	confirm *confirmation

	width  int
	height int

	busy    int
	notice  string
	err     error
	palette palette
	tr      func(key string, args ...any) string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
}

type confirmation struct {
	prompt string
	run    tea.Cmd
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	Back     key.Binding
	Quit     key.Binding
	Refresh  key.Binding
	Launch   key.Binding
	Stop     key.Binding
	Delete   key.Binding
	Filter   key.Binding
	Bin      key.Binding
	Proxies  key.Binding
	Select   key.Binding
	Restore  key.Binding
	Purge    key.Binding
	Empty    key.Binding
	Test     key.Binding
	TestAll  key.Binding
	Yes      key.Binding
	No       key.Binding
	Profiles key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		Right:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next page")),
		Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Launch:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "launch")),
		Stop:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Bin:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "recycle bin")),
		Proxies:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "proxies")),
		Profiles: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "profiles")),
		Select:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Restore:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "restore")),
		Purge:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "purge")),
		Empty:    key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "empty bin")),
		Test:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test")),
		TestAll:  key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "test all")),
		Yes:      key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		No:       key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
	}
}

// ShortHelp 实现 help.KeyMap。
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Launch, k.Stop, k.Filter, k.Bin, k.Proxies, k.Refresh, k.Quit}
}

// FullHelp 实现 help.KeyMap。
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Launch, k.Stop, k.Delete, k.Filter},
		{k.Select, k.Restore, k.Purge, k.Empty, k.Left, k.Right},
		{k.Test, k.TestAll, k.Refresh, k.Quit},
	}
}

// NewModel 创建新的 TUI 模型。orch 的事件订阅由调用方负责，模型只读取其状态快照。
func NewModel(ctx context.Context, orch *orchestrator.Orchestrator, prefs clientstate.State) Model {
	orch.Bin.SetPageSize(prefs.PageSize)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:     ctx,
		orch:    orch,
		prefs:   prefs,
		view:    ViewProfiles,
		palette: paletteFor(prefs.Theme),
		tr:      i18n.MustDefault().For(prefs.Locale),
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		busy:    1,
	}
}

// Prefs 返回退出时应持久化的界面偏好。
func (m Model) Prefs() clientstate.State {
	p := m.prefs
	page, _, _ := m.orch.Bin.Page()
	p.LastPage = page
	return p
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.sync(), tickCmd(), m.spinner.Tick)
}

// 消息类型

type syncedMsg struct {
	err error
}

type binLoadedMsg struct {
	err error
}

type actionDoneMsg struct {
	notice string
	err    error
}

type tickMsg time.Time

// 命令

func (m Model) sync() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, opTimeout)
		defer cancel()
		return syncedMsg{err: m.orch.Sync(ctx)}
	}
}

func (m Model) loadBin() tea.Cmd {
	page := m.prefs.LastPage
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, opTimeout)
		defer cancel()
		_, err := m.orch.Bin.Load(ctx)
		if err == nil {
			m.orch.Bin.SetPage(page)
		}
		return binLoadedMsg{err: err}
	}
}

// action 在后台执行一次后端操作，完成后回报提示文本。
func (m Model) action(notice string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, opTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: notice}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// snapshot 从 orchestrator 重新读取列表，并把光标夹在范围内。
func (m *Model) snapshot() {
	m.profiles = m.orch.Profiles.Filter(domain.ProfileFilter{Keyword: m.filter})
	_, _, m.bin = m.orch.Bin.Page()
	m.proxies = m.orch.State.Proxies()
	m.selectedProfile = clamp(m.selectedProfile, len(m.profiles))
	m.selectedBin = clamp(m.selectedBin, len(m.bin))
	m.selectedProxy = clamp(m.selectedProxy, len(m.proxies))
}

func (m Model) currentProfile() (domain.Profile, bool) {
	if m.view == ViewDetail {
		return m.orch.State.Profile(m.detailID)
	}
	if len(m.profiles) == 0 {
		return domain.Profile{}, false
	}
	return m.profiles[m.selectedProfile], true
}

func clamp(i, n int) int {
	switch {
	case n == 0 || i < 0:
		return 0
	case i >= n:
		return n - 1
	}
	return i
}
