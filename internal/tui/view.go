package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/subconv/internal/node"
)

// View 实现 tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.view {
	case ViewMemberList:
		return m.renderMemberListView()
	case ViewNodeDetail:
		return m.renderNodeDetailView()
	default:
		return m.renderGroupListView()
	}
}

func (m Model) renderGroupListView() string {
	var b strings.Builder

	header := styleHeader.Width(m.width).Render("  subconv · Proxy Groups")
	b.WriteString(header)
	b.WriteString("\n\n")

	m.writeStatus(&b)

	tableHeader := fmt.Sprintf("  %-3s │ %-24s │ %-12s │ %-8s │ %s", "#", "Name", "Type", "Members", "Rules")
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.groups) == 0 {
		b.WriteString(styleMuted().Render("  No groups. The subscription produced no nodes."))
		b.WriteString("\n")
	} else {
		start, end := window(m.selectedGroup, len(m.groups), m.height-12)
		for i := start; i < end; i++ {
			g := m.groups[i]
			row := fmt.Sprintf("  %-3d │ %s %s │ %-12s │ %-8d │ %d",
				i+1,
				KindIcon(g.Group.Type),
				padRight(truncate(g.Group.Name, 22), 22),
				g.Group.Type,
				len(g.Members),
				g.Rules,
			)
			b.WriteString(renderRow(row, i == m.selectedGroup, m.width))
			b.WriteString("\n")
		}
		if end-start < len(m.groups) {
			b.WriteString(styleMuted().Render(fmt.Sprintf("  Showing %d-%d of %d groups", start+1, end, len(m.groups))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n\n")
	b.WriteString(styleHelp.Render("  [↑/↓] Navigate  [Enter] Members  [r] Reconvert  [q] Quit"))
	return b.String()
}

func (m Model) renderMemberListView() string {
	var b strings.Builder
	if m.currentGroup == nil {
		return "No group selected"
	}
	g := m.currentGroup

	title := fmt.Sprintf("  %s (%s)", g.Group.Name, g.Group.Type)
	if hc := g.Group.HealthCheck; hc != nil {
		title += fmt.Sprintf("  ·  %s every %ds", hc.URL, hc.Interval)
	}
	b.WriteString(styleHeader.Width(m.width).Render(title))
	b.WriteString("\n\n")

	m.writeStatus(&b)

	tableHeader := fmt.Sprintf("  %-3s │ %-28s │ %-8s │ %s", "#", "Name", "Type", "Endpoint")
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(g.Members) == 0 {
		b.WriteString(styleMuted().Render("  This group has no members"))
		b.WriteString("\n")
	} else {
		start, end := window(m.selectedMember, len(g.Members), m.height-10)
		for i := start; i < end; i++ {
			mem := g.Members[i]
			kind, endpoint := "group", "→ "+mem.Name
			if mem.Node != nil {
				kind = mem.Node.Type().String()
				endpoint = endpointOf(mem.Node)
			}
			row := fmt.Sprintf("  %-3d │ %s │ %-8s │ %s",
				i+1, padRight(truncate(mem.Name, 28), 28), kind, endpoint)
			b.WriteString(renderRow(row, i == m.selectedMember, m.width))
			b.WriteString("\n")
		}
		if end-start < len(g.Members) {
			b.WriteString(styleMuted().Render(fmt.Sprintf("  Showing %d-%d of %d members", start+1, end, len(g.Members))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  [↑/↓] Navigate  [Enter] Details  [Esc] Back  [r] Reconvert  [q] Quit"))
	return b.String()
}

func (m Model) renderNodeDetailView() string {
	n := m.detailNode
	if n == nil {
		return "No node selected"
	}

	var lines []string
	lines = append(lines, styleHeader.Width(m.width).Render(fmt.Sprintf("  Node: %s", n.Name)), "")

	box := styleDetailBox.Width(m.width - 4).Render(renderBasicInfo(n))
	lines = append(lines, strings.Split(box, "\n")...)
	lines = append(lines, "")

	raw, err := yaml.Marshal(*n)
	var rendered string
	if err != nil {
		rendered = styleError.Render(err.Error())
	} else {
		rendered = strings.TrimRight(string(raw), "\n")
	}
	yamlBox := styleBox.Width(m.width - 4).Render(rendered)
	lines = append(lines, strings.Split(yamlBox, "\n")...)

	viewport := m.height - 4
	if viewport < 5 {
		viewport = 5
	}
	maxScroll := len(lines) - viewport
	if maxScroll < 0 {
		maxScroll = 0
	}
	offset := min(max(m.detailScrollOffset, 0), maxScroll)
	end := min(offset+viewport, len(lines))

	var b strings.Builder
	b.WriteString(strings.Join(lines[offset:end], "\n"))
	b.WriteString("\n")
	if len(lines) > viewport {
		b.WriteString(styleMuted().Render(fmt.Sprintf("  [%d/%d]", offset+1, maxScroll+1)))
		b.WriteString("\n")
	}
	b.WriteString(styleHelp.Render("  [↑/↓] Scroll  [Esc] Back  [q] Quit"))
	return b.String()
}

func renderBasicInfo(n *node.ProxyNode) string {
	rows := [][2]string{
		{"Type", n.Type().String()},
		{"Server", n.Server},
		{"Port", strconv.Itoa(n.Port)},
		{"UDP", strconv.FormatBool(n.UDP)},
	}
	switch v := n.Variant.(type) {
	case *node.Shadowsocks:
		rows = append(rows, [2]string{"Cipher", v.Cipher})
	case *node.Trojan:
		rows = append(rows, [2]string{"SNI", v.SNI}, [2]string{"Skip Verify", strconv.FormatBool(v.SkipCertVerify)})
	case *node.VMess:
		rows = append(rows, [2]string{"UUID", maskUUID(v.UUID)}, [2]string{"Network", v.Network}, [2]string{"TLS", strconv.FormatBool(v.TLS)})
	case *node.VLESS:
		rows = append(rows, [2]string{"UUID", maskUUID(v.UUID)}, [2]string{"Network", v.Network}, [2]string{"Flow", v.Flow})
	}

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		out = append(out, lipgloss.JoinHorizontal(lipgloss.Top, styleLabel.Render(r[0]), styleValue.Render(r[1])))
	}
	return strings.Join(out, "\n")
}

func (m Model) writeStatus(b *strings.Builder) {
	if m.err != nil {
		b.WriteString(styleError.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n")
	}
	if m.loading {
		b.WriteString(styleMuted().Render("  Converting..."))
		b.WriteString("\n\n")
	}
}

func (m Model) renderSummary() string {
	d := m.diagnostics
	summary := fmt.Sprintf("  Links: %d  Decoded: %d  │  Rule sources: %d", d.Links, d.Decoded, d.RuleSources)
	if n := len(d.Dropped); n > 0 {
		summary += "  " + styleWarning.Render(fmt.Sprintf("Dropped: %d", n))
	}
	if d.RuleSourcesFailed > 0 {
		summary += "  " + styleWarning.Render(fmt.Sprintf("Failed: %d", d.RuleSourcesFailed))
	}
	return summary
}

func renderRow(row string, selected bool, width int) string {
	if selected {
		return styleTableRowSelected.Width(width).Render("▶" + row[1:])
	}
	return styleTableRow.Render(row)
}

// window 返回以 selected 可见为前提的 [start, end) 区间
func window(selected, total, rows int) (int, int) {
	if rows < 5 {
		rows = 5
	}
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	return start, min(start+rows, total)
}

func endpointOf(n *node.ProxyNode) string {
	return n.Server + ":" + strconv.Itoa(n.Port)
}

// ruleTarget 取规则指向的策略名，忽略末尾的 no-resolve
func ruleTarget(rule string) string {
	fields := strings.Split(rule, ",")
	last := fields[len(fields)-1]
	if last == "no-resolve" && len(fields) > 1 {
		last = fields[len(fields)-2]
	}
	return last
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func padRight(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

func maskUUID(uuid string) string {
	if len(uuid) <= 8 {
		return uuid
	}
	return uuid[:8] + "…"
}
