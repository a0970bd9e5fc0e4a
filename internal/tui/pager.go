// Package tui provides a scrollable full-screen view of rendered reports.
package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/DiFronzo/CatWatchBot2.0/internal/cli"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// headerHeight and footerHeight are the lines around the viewport.
const (
	headerHeight = 2
	footerHeight = 2
)

// Pager shows pre-rendered text in a scrollable viewport.
type Pager struct {
	keymap   KeyMap
	help     help.Model
	viewport viewport.Model
	title    string
	content  string
	ready    bool
}

// NewPager creates a pager for content.
func NewPager(title, content string) Pager {
	return Pager{
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		title:   title,
		content: content,
	}
}

// Init implements tea.Model.
func (p Pager) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-headerHeight-footerHeight, 1)
		if !p.ready {
			p.viewport = viewport.New(msg.Width, height)
			p.viewport.SetContent(p.content)
			p.ready = true
		} else {
			p.viewport.Width = msg.Width
			p.viewport.Height = height
		}
		p.help.Width = msg.Width
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keymap.Quit):
			return p, tea.Quit
		case key.Matches(msg, p.keymap.Help):
			p.help.ShowAll = !p.help.ShowAll
			return p, nil
		case key.Matches(msg, p.keymap.Home):
			p.viewport.GotoTop()
			return p, nil
		case key.Matches(msg, p.keymap.End):
			p.viewport.GotoBottom()
			return p, nil
		}
	}

	if !p.ready {
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// View implements tea.Model.
func (p Pager) View() string {
	if !p.ready {
		return "Loading..."
	}

	header := cli.TitleStyle.UnsetMargins().Render(p.title)
	percent := cli.SubtleStyle.Render(fmt.Sprintf("%3.0f%%", p.viewport.ScrollPercent()*100))
	footer := lipgloss.JoinHorizontal(lipgloss.Top, p.help.View(p.keymap), "  ", percent)

	return lipgloss.JoinVertical(lipgloss.Left, header, "", p.viewport.View(), "", footer)
}

// Run shows content full screen until the user quits or ctx is done.
func Run(ctx context.Context, title, content string, in io.Reader, out io.Writer) error {
	program := tea.NewProgram(
		NewPager(title, content),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("pager failed: %w", err)
	}
	return nil
}
