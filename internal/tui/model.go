package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/subconv/internal/clash"
	"github.com/creamcroissant/subconv/internal/node"
	"github.com/creamcroissant/subconv/internal/service"
)

// ViewType 表示当前视图
type ViewType int

const (
	ViewGroupList  ViewType = iota // 代理组列表
	ViewMemberList                 // 组内成员列表
	ViewNodeDetail                 // 节点详情
)

// Loader 执行一次转换，r 键会重新调用。
type Loader func(ctx context.Context) (*service.Result, error)

// GroupInfo 封装代理组与解析后的成员
type GroupInfo struct {
	Group   clash.ProxyGroup
	Members []MemberInfo
	// Rules 是指向该组的规则数量
	Rules int
}

// MemberInfo 是组内的一个成员。Node 为 nil 时成员是另一个组或内置策略。
type MemberInfo struct {
	Name string
	Node *node.ProxyNode
}

// Model 是主 TUI 模型
type Model struct {
	load Loader

	// 数据
	groups        []GroupInfo
	diagnostics   service.Diagnostics
	selectedGroup int

	// 当前组（ViewMemberList 时使用）
	currentGroup   *GroupInfo
	selectedMember int

	// 视图状态
	view       ViewType
	detailNode *node.ProxyNode

	// 终端尺寸
	width  int
	height int

	// 详情视图的滚动状态
	detailScrollOffset int

	// 状态
	loading bool
	err     error

	// 按键绑定
	keys keyMap
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Quit    key.Binding
	Refresh key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconvert"),
		),
	}
}

// NewModel 创建新的 TUI 模型
func NewModel(load Loader) Model {
	return Model{
		load:    load,
		view:    ViewGroupList,
		keys:    defaultKeyMap(),
		loading: true,
	}
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return m.convert()
}

// 消息类型

type convertedMsg struct {
	groups      []GroupInfo
	diagnostics service.Diagnostics
}

type errorMsg struct {
	err error
}

// 命令

func (m Model) convert() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		res, err := load(context.Background())
		if err != nil {
			return errorMsg{err: err}
		}
		return convertedMsg{groups: BuildGroups(res), diagnostics: res.Diagnostics}
	}
}

// BuildGroups resolves every group member of the document to its node.
func BuildGroups(res *service.Result) []GroupInfo {
	if res == nil || res.Document == nil {
		return nil
	}
	doc := res.Document
	byName := make(map[string]*node.ProxyNode, len(doc.Proxies))
	for i := range doc.Proxies {
		byName[doc.Proxies[i].Name] = &doc.Proxies[i]
	}
	ruleCount := make(map[string]int)
	for _, r := range doc.Rules {
		ruleCount[ruleTarget(r)]++
	}

	groups := make([]GroupInfo, 0, len(doc.ProxyGroups))
	for _, g := range doc.ProxyGroups {
		info := GroupInfo{Group: g, Rules: ruleCount[g.Name]}
		for _, name := range g.Proxies {
			info.Members = append(info.Members, MemberInfo{Name: name, Node: byName[name]})
		}
		groups = append(groups, info)
	}
	return groups
}
