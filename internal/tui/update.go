package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case convertedMsg:
		m.loading = false
		m.err = nil
		m.groups = msg.groups
		m.diagnostics = msg.diagnostics
		if m.selectedGroup >= len(m.groups) {
			m.selectedGroup = 0
		}
		// 重新转换后组可能已消失，回到列表
		m.view = ViewGroupList
		m.currentGroup = nil
		m.detailNode = nil
		m.selectedMember = 0
		return m, nil

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		return m.handleUp()

	case key.Matches(msg, m.keys.Down):
		return m.handleDown()

	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, m.keys.Back):
		return m.handleBack()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.convert()
	}

	return m, nil
}

func (m Model) handleUp() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewGroupList:
		if len(m.groups) > 0 {
			m.selectedGroup--
			if m.selectedGroup < 0 {
				m.selectedGroup = len(m.groups) - 1
			}
		}
	case ViewMemberList:
		if n := len(m.currentGroup.Members); n > 0 {
			m.selectedMember--
			if m.selectedMember < 0 {
				m.selectedMember = n - 1
			}
		}
	case ViewNodeDetail:
		if m.detailScrollOffset > 0 {
			m.detailScrollOffset--
		}
	}
	return m, nil
}

func (m Model) handleDown() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewGroupList:
		if len(m.groups) > 0 {
			m.selectedGroup++
			if m.selectedGroup >= len(m.groups) {
				m.selectedGroup = 0
			}
		}
	case ViewMemberList:
		if n := len(m.currentGroup.Members); n > 0 {
			m.selectedMember++
			if m.selectedMember >= n {
				m.selectedMember = 0
			}
		}
	case ViewNodeDetail:
		// 上限在渲染时按内容行数收紧
		if m.detailScrollOffset < 100 {
			m.detailScrollOffset++
		}
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewGroupList:
		if len(m.groups) > 0 {
			m.currentGroup = &m.groups[m.selectedGroup]
			m.view = ViewMemberList
			m.selectedMember = 0
		}
	case ViewMemberList:
		members := m.currentGroup.Members
		if len(members) == 0 {
			return m, nil
		}
		member := members[m.selectedMember]
		if member.Node != nil {
			m.detailNode = member.Node
			m.view = ViewNodeDetail
			m.detailScrollOffset = 0
			return m, nil
		}
		// 成员是另一个组时跳转到该组
		for i := range m.groups {
			if m.groups[i].Group.Name == member.Name {
				m.selectedGroup = i
				m.currentGroup = &m.groups[i]
				m.selectedMember = 0
				break
			}
		}
	}
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewNodeDetail:
		m.view = ViewMemberList
		m.detailNode = nil
	case ViewMemberList:
		m.view = ViewGroupList
		m.currentGroup = nil
		m.selectedMember = 0
	}
	return m, nil
}
