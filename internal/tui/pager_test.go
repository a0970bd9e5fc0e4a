package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func content(lines int) string {
	var b strings.Builder
	for i := range lines {
		b.WriteString("line ")
		b.WriteString(strings.Repeat("x", i%5))
		b.WriteString("\n")
	}
	return b.String()
}

func sized(t *testing.T, p Pager, width, height int) Pager {
	t.Helper()
	m, cmd := p.Update(tea.WindowSizeMsg{Width: width, Height: height})
	assert.Nil(t, cmd)
	return m.(Pager)
}

func press(t *testing.T, p Pager, msg tea.KeyMsg) (Pager, tea.Cmd) {
	t.Helper()
	m, cmd := p.Update(msg)
	return m.(Pager), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPager_LoadingUntilSized(t *testing.T) {
	p := NewPager("Ticker", "hello")
	assert.Equal(t, "Loading...", p.View())
	assert.Nil(t, p.Init())

	p, cmd := press(t, p, runes("j"))
	assert.Nil(t, cmd)
	assert.False(t, p.ready)
}

func TestPager_ViewShowsTitleAndContent(t *testing.T) {
	p := sized(t, NewPager("Ticker", "14. mai\n  Oslo ryddet"), 80, 20)

	view := p.View()
	assert.Contains(t, view, "Ticker")
	assert.Contains(t, view, "Oslo ryddet")
	assert.Contains(t, view, "quit")
}

func TestPager_Scrolling(t *testing.T) {
	p := sized(t, NewPager("Overview", content(100)), 80, 14)
	require.Equal(t, 10, p.viewport.Height)
	assert.True(t, p.viewport.AtTop())

	p, _ = press(t, p, runes("G"))
	assert.True(t, p.viewport.AtBottom())

	p, _ = press(t, p, runes("g"))
	assert.True(t, p.viewport.AtTop())

	p, _ = press(t, p, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, p.viewport.YOffset)
}

func TestPager_Resize(t *testing.T) {
	p := sized(t, NewPager("Overview", content(10)), 80, 14)
	p = sized(t, p, 120, 30)
	assert.Equal(t, 120, p.viewport.Width)
	assert.Equal(t, 26, p.viewport.Height)

	p = sized(t, p, 40, 2)
	assert.Equal(t, 1, p.viewport.Height)
}

func TestPager_HelpToggle(t *testing.T) {
	p := sized(t, NewPager("Ticker", "x"), 80, 20)
	assert.False(t, p.help.ShowAll)

	p, _ = press(t, p, runes("?"))
	assert.True(t, p.help.ShowAll)
	assert.Contains(t, p.View(), "go to end")
}

func TestPager_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{name: "q", msg: runes("q")},
		{name: "esc", msg: tea.KeyMsg{Type: tea.KeyEsc}},
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sized(t, NewPager("Ticker", "x"), 80, 20)
			_, cmd := press(t, p, tt.msg)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}
