package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/subconv/internal/clash"
	"github.com/creamcroissant/subconv/internal/node"
	"github.com/creamcroissant/subconv/internal/service"
)

func testResult() *service.Result {
	hk := node.ProxyNode{Name: "香港 01", Server: "1.2.3.4", Port: 8388, Variant: &node.Shadowsocks{Cipher: "aes-256-gcm", Password: "pw"}}
	us := node.ProxyNode{Name: "美国 01", Server: "5.6.7.8", Port: 443, UDP: true, Variant: &node.Trojan{Password: "pw", SNI: "example.com"}}
	return &service.Result{
		Document: &clash.Document{
			Proxies: []node.ProxyNode{hk, us},
			ProxyGroups: []clash.ProxyGroup{
				{Name: "节点选择", Type: "select", Proxies: []string{"🇭🇰香港", "DIRECT"}},
				{Name: "🇭🇰香港", Type: "url-test", Proxies: []string{"香港 01"}, HealthCheck: &clash.HealthCheck{URL: "http://www.gstatic.com/generate_204", Interval: 300}},
				{Name: "🇺🇸美国", Type: "url-test", Proxies: []string{"美国 01"}, HealthCheck: &clash.HealthCheck{URL: "http://www.gstatic.com/generate_204", Interval: 300}},
			},
			Rules: []string{
				"DOMAIN-SUFFIX,example.org,节点选择",
				"IP-CIDR,10.0.0.0/8,节点选择,no-resolve",
				"MATCH,节点选择",
			},
		},
		Diagnostics: service.Diagnostics{Links: 3, Decoded: 2, RuleSources: 1},
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func loaded(t *testing.T) Model {
	t.Helper()
	m := NewModel(func(context.Context) (*service.Result, error) { return testResult(), nil })
	msg := m.Init()()
	next, _ := m.Update(msg)
	next, _ = next.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func TestBuildGroups(t *testing.T) {
	groups := BuildGroups(testResult())
	require.Len(t, groups, 3)

	sel := groups[0]
	assert.Equal(t, 3, sel.Rules)
	require.Len(t, sel.Members, 2)
	assert.Nil(t, sel.Members[0].Node, "group members are references, not nodes")

	hk := groups[1]
	require.Len(t, hk.Members, 1)
	require.NotNil(t, hk.Members[0].Node)
	assert.Equal(t, "1.2.3.4", hk.Members[0].Node.Server)

	assert.Nil(t, BuildGroups(nil))
}

func TestNavigation(t *testing.T) {
	m := loaded(t)
	require.False(t, m.loading)
	assert.Contains(t, m.View(), "节点选择")

	m = press(t, m, "enter")
	require.Equal(t, ViewMemberList, m.view)
	assert.Equal(t, "节点选择", m.currentGroup.Group.Name)

	// entering a group reference jumps to that group
	m = press(t, m, "enter")
	require.Equal(t, ViewMemberList, m.view)
	assert.Equal(t, "🇭🇰香港", m.currentGroup.Group.Name)

	m = press(t, m, "enter")
	require.Equal(t, ViewNodeDetail, m.view)
	assert.Equal(t, "香港 01", m.detailNode.Name)
	view := m.View()
	assert.Contains(t, view, "aes-256-gcm")
	assert.Contains(t, view, "1.2.3.4")

	m = press(t, m, "esc", "esc")
	assert.Equal(t, ViewGroupList, m.view)
	assert.Nil(t, m.currentGroup)
}

func TestSelectionWraps(t *testing.T) {
	m := loaded(t)
	m = press(t, m, "up")
	assert.Equal(t, 2, m.selectedGroup)
	m = press(t, m, "down")
	assert.Equal(t, 0, m.selectedGroup)
}

func TestConvertError(t *testing.T) {
	m := NewModel(func(context.Context) (*service.Result, error) { return nil, errors.New("upstream down") })
	next, _ := m.Update(m.Init()())
	next, _ = next.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, next.View(), "upstream down")
}

func TestRuleTarget(t *testing.T) {
	assert.Equal(t, "G", ruleTarget("DOMAIN,a.com,G"))
	assert.Equal(t, "G", ruleTarget("IP-CIDR,1.0.0.0/8,G,no-resolve"))
	assert.Equal(t, "G", ruleTarget("MATCH,G"))
}
