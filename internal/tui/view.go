package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

// View 实现 tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return m.tr("tui.loading")
	}

	var body string
	switch m.view {
	case ViewProfiles:
		body = m.renderProfileListView()
	case ViewDetail:
		body = m.renderDetailView()
	case ViewRecycleBin:
		body = m.renderRecycleBinView()
	case ViewProxies:
		body = m.renderProxyListView()
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.palette.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderHeader(title string) string {
	return m.palette.header.Width(m.width).Render("  " + title)
}

func (m Model) renderStatusLine() string {
	switch {
	case m.confirm != nil:
		return styleWarning.Render("  " + m.tr("tui.confirm", m.confirm.prompt))
	case m.filtering:
		return "  " + m.tr("tui.filter", m.filter+"█")
	case m.err != nil:
		return styleOffline.Render("  " + m.tr("tui.error", m.err))
	case m.busy > 0:
		return "  " + m.spinner.View() + styleMuted.Render(" "+m.tr("tui.working"))
	case m.notice != "":
		return styleOnline.Render("  " + m.notice)
	}
	return ""
}

func (m Model) renderProfileListView() string {
	var b strings.Builder
	b.WriteString(m.renderHeader(m.tr("tui.profiles.title")))
	b.WriteString("\n\n")

	if m.filter != "" && !m.filtering {
		b.WriteString(styleMuted.Render("  " + m.tr("tui.filter.active", m.filter)))
		b.WriteString("\n\n")
	}

	tableHeader := fmt.Sprintf("  %-12s │ %-20s │ %-10s │ %-24s │ %-16s │ %s",
		"Status", "Name", "Group", "Proxy", "Last Opened", "Platform")
	b.WriteString(m.palette.tableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.profiles) == 0 {
		b.WriteString(styleMuted.Render("  " + m.tr("tui.profiles.empty")))
		b.WriteString("\n")
	} else {
		start, end := m.window(m.selectedProfile, len(m.profiles))
		for i := start; i < end; i++ {
			b.WriteString(m.renderProfileRow(m.profiles[i], i == m.selectedProfile))
			b.WriteString("\n")
		}
		if len(m.profiles) > end-start {
			b.WriteString(styleMuted.Render("  " + m.tr("tui.profiles.showing", start+1, end, len(m.profiles))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderProfileSummary())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderProfileRow(p domain.Profile, selected bool) string {
	status := ProfileStatusIcon(p.Status)
	if pct := m.orch.State.Progress().Percent(p.ID); p.Status == domain.StatusLaunching && pct > 0 {
		status = styleWarning.Render(fmt.Sprintf("◐ %3d%%", pct))
	}
	row := fmt.Sprintf("  %s │ %-20s │ %-10s │ %-24s │ %-16s │ %s",
		padRight(status, 12),
		truncate(p.Name, 20),
		truncate(m.groupName(p.Group), 10),
		truncate(proxyLabel(p.Proxy), 24),
		formatTime(p.LastOpenTime),
		p.Fingerprint.Platform,
	)
	if selected {
		return m.palette.rowSelected.Width(m.width).Render("▶" + row[1:])
	}
	return m.palette.row.Render(row)
}

func (m Model) renderProfileSummary() string {
	var running, pending, failed int
	for _, p := range m.profiles {
		switch {
		case p.Status == domain.StatusRunning:
			running++
		case p.Status.Pending():
			pending++
		case p.Status == domain.StatusError:
			failed++
		}
	}
	return "  " + m.tr("tui.profiles.summary",
		styleOnline.Render("●"), running,
		styleWarning.Render("◐"), pending,
		styleOffline.Render("✕"), failed,
		len(m.profiles),
	)
}

func (m Model) renderDetailView() string {
	var b strings.Builder
	p, ok := m.orch.State.Profile(m.detailID)
	if !ok {
		b.WriteString(m.renderHeader(m.tr("tui.profile.title", m.detailID)))
		b.WriteString("\n\n")
		b.WriteString(styleMuted.Render("  " + m.tr("tui.profile.gone")))
		return b.String()
	}
	b.WriteString(m.renderHeader(m.tr("tui.profile.title", p.Name)))
	b.WriteString("\n\n")

	fp := p.Fingerprint
	lines := []string{
		m.field("ID", p.ID),
		m.field("Status", ProfileStatusIcon(p.Status)),
		m.field("Group", m.groupName(p.Group)),
		m.field("Proxy", proxyLabel(p.Proxy)),
		m.field("Last opened", formatTime(p.LastOpenTime)),
		m.field("Created", p.CreatedAt.Local().Format(time.DateTime)),
		"",
		m.field("Platform", fp.Platform),
		m.field("Browser", strings.TrimSpace(fp.Browser+" "+fp.Version)),
		m.field("User agent", truncate(fp.UserAgent, max(m.width-30, 20))),
		m.field("Screen", fp.ScreenResolution),
		m.field("Timezone", fp.Timezone),
		m.field("Language", fp.Language),
		m.field("CPU / memory", fmt.Sprintf("%d cores / %d GB", fp.HardwareConcurrency, fp.DeviceMemory)),
	}
	if p.Remark != "" {
		lines = append(lines, "", m.field("Remark", p.Remark))
	}
	if progress, ok := m.orch.State.Progress().Get(p.ID); ok {
		pct := m.orch.State.Progress().Percent(p.ID)
		lines = append(lines, "", m.field("Launching", fmt.Sprintf("%s %d%% %s", ProgressBar(float64(pct), 20), pct, progress.Message)))
	}
	if msg := m.orch.State.LastError(p.ID); msg != "" {
		lines = append(lines, "", styleOffline.Render(m.tr("tui.profile.last_error", msg)))
	}

	b.WriteString(m.palette.detailBox.Width(max(m.width-4, 40)).Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderRecycleBinView() string {
	var b strings.Builder
	page, _, _ := m.orch.Bin.Page()
	b.WriteString(m.renderHeader(m.tr("tui.bin.title", page, m.orch.Bin.Pages())))
	b.WriteString("\n\n")

	tableHeader := fmt.Sprintf("  %-3s │ %-24s │ %-10s │ %s", "", "Name", "Group", "Deleted")
	b.WriteString(m.palette.tableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.bin) == 0 {
		b.WriteString(styleMuted.Render("  " + m.tr("tui.bin.empty")))
		b.WriteString("\n")
		return b.String()
	}
	for i, p := range m.bin {
		mark := "[ ]"
		if m.isSelected(p.ID) {
			mark = "[x]"
		}
		row := fmt.Sprintf("  %-3s │ %-24s │ %-10s │ %s",
			mark, truncate(p.Name, 24), truncate(m.groupName(p.Group), 10), p.DeletedAt.Local().Format(time.DateTime))
		if i == m.selectedBin {
			b.WriteString(m.palette.rowSelected.Width(m.width).Render("▶" + row[1:]))
		} else {
			b.WriteString(m.palette.row.Render(row))
		}
		b.WriteString("\n")
	}
	if n := len(m.orch.Bin.Selected()); n > 0 {
		b.WriteString("\n")
		b.WriteString(styleWarning.Render("  " + m.tr("tui.bin.selected", n)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderProxyListView() string {
	var b strings.Builder
	b.WriteString(m.renderHeader(m.tr("tui.proxies.title")))
	b.WriteString("\n\n")

	tableHeader := fmt.Sprintf("  %-2s │ %-16s │ %-28s │ %-16s │ %-8s │ %s",
		"", "Name", "Address", "IP", "Latency", "Location")
	b.WriteString(m.palette.tableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.proxies) == 0 {
		b.WriteString(styleMuted.Render("  " + m.tr("tui.proxies.empty")))
		b.WriteString("\n")
		return b.String()
	}
	start, end := m.window(m.selectedProxy, len(m.proxies))
	for i := start; i < end; i++ {
		p := m.proxies[i]
		latency := "-"
		if p.Latency > 0 {
			latency = fmt.Sprintf("%dms", p.Latency)
		}
		row := fmt.Sprintf("  %s │ %-16s │ %-28s │ %-16s │ %-8s │ %s",
			padRight(ProxyStatusIcon(p.Status), 2),
			truncate(p.Name, 16),
			truncate(fmt.Sprintf("%s://%s:%d", p.Type, p.Host, p.Port), 28),
			truncate(p.IPAddress, 16),
			latency,
			p.Location,
		)
		if i == m.selectedProxy {
			b.WriteString(m.palette.rowSelected.Width(m.width).Render("▶" + row[1:]))
		} else {
			b.WriteString(m.palette.row.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// window 按终端高度计算可见区间，保证光标在内。
func (m Model) window(selected, n int) (int, int) {
	visible := max(m.height-12, 5)
	start := 0
	if selected >= visible {
		start = selected - visible + 1
	}
	return start, min(start+visible, n)
}

func (m Model) field(label, value string) string {
	return m.palette.label.Render(label) + m.palette.value.Render(value)
}

func (m Model) groupName(id string) string {
	if g, ok := m.orch.State.Group(id); ok && g.Name != "" {
		return g.Name
	}
	return id
}

func proxyLabel(p *domain.ProxyConfig) string {
	if p == nil || p.Type == domain.ProxyDirect || p.Host == "" {
		return "direct"
	}
	return fmt.Sprintf("%s://%s:%d", p.Type, p.Host, p.Port)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// padRight 按显示宽度补齐，带 ANSI 样式的字符串不能用 %-Ns。
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
