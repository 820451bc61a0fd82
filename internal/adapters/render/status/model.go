package status

import (
	"errors"
	"fmt"
	"io"

	"github.com/bnema/leasehold/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// kindRenderedMsg carries the block drawn for statuses[index].
type kindRenderedMsg struct {
	index int
	block string
}

// model draws one kind per update and quits once every kind has a block.
type model struct {
	statuses []application.Status
	opts     RenderOptions
	styles   styles
	blocks   []string
}

func newModel(statuses []application.Status, opts RenderOptions) model {
	return model{
		statuses: statuses,
		opts:     opts,
		styles:   newStyles(),
		blocks:   make([]string, 0, len(statuses)),
	}
}

func (m model) Init() tea.Cmd {
	return m.renderKind(0)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	rendered, ok := msg.(kindRenderedMsg)
	if !ok {
		return m, nil
	}

	m.blocks = append(m.blocks, rendered.block)
	return m, m.renderKind(rendered.index + 1)
}

func (m model) renderKind(index int) tea.Cmd {
	if index >= len(m.statuses) {
		return tea.Quit
	}

	status, opts, s := m.statuses[index], m.opts, m.styles
	return func() tea.Msg {
		return kindRenderedMsg{index: index, block: s.section.Render(renderKind(status, opts, s))}
	}
}

func (m model) View() string {
	return renderFrame(m.statuses, m.blocks, m.styles)
}

// Render draws one block per session kind through a bubbletea program and
// returns the final frame.
func Render(statuses []application.Status, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(statuses, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}
	if len(rendered.blocks) != len(statuses) {
		return "", fmt.Errorf("render status: %d of %d kinds drawn", len(rendered.blocks), len(statuses))
	}

	return rendered.View(), nil
}
