package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0B0B0B")).
				Background(lipgloss.Color("#7FDBFF")).
				Bold(true).
				Padding(0, 1)

	pickerHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6ADC8")).
			Faint(true)

	pickerHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F8F8F2")).
				Bold(true)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0B0B0B")).
				Background(lipgloss.Color("#00F5D4")).
				Bold(true)

	pickerRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EAEAEA"))
)

// PickerItem is one selectable candidate row.
type PickerItem struct {
	URL    string
	Kind   string
	Width  int
	Height int
	Size   int64 // probed bytes; negative when unknown
}

type pickerModel struct {
	viewport viewport.Model
	title    string
	items    []PickerItem
	selected int
	ready    bool
	quitting bool
	width    int
	height   int
}

type pickerQuitMsg struct{}

func newPickerModel(title string, items []PickerItem) *pickerModel {
	vp := viewport.New(80, 14)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7FDBFF"))
	vp.SetContent(buildPickerContent(items, 0))

	return &pickerModel{
		viewport: vp,
		title:    title,
		items:    items,
		selected: 0,
		width:    80,
		height:   24,
	}
}

func buildPickerContent(items []PickerItem, selected int) string {
	var b strings.Builder
	b.WriteString(pickerHeaderStyle.Render("  #  kind     resolution  size       url"))
	b.WriteString("\n")

	for i, item := range items {
		line := fmt.Sprintf("%3d  %-7s  %-10s  %-9s  %s",
			i+1, item.Kind, itemResolution(item), itemSize(item), truncateText(item.URL, 60))
		if i == selected {
			line = pickerSelectedStyle.Render(line)
		} else {
			line = pickerRowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCandidates renders the same table unstyled, with full URLs,
// for plain listing output.
func FormatCandidates(items []PickerItem) string {
	var b strings.Builder
	b.WriteString("  #  kind     resolution  size       url\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%3d  %-7s  %-10s  %-9s  %s\n",
			i+1, item.Kind, itemResolution(item), itemSize(item), item.URL)
	}
	return b.String()
}

func itemResolution(item PickerItem) string {
	if item.Width > 0 || item.Height > 0 {
		return fmt.Sprintf("%dx%d", item.Width, item.Height)
	}
	return "-"
}

func itemSize(item PickerItem) string {
	if item.Size >= 0 {
		return HumanBytes(item.Size)
	}
	return "-"
}

func (m *pickerModel) Init() tea.Cmd {
	return nil
}

// pickerQuitAfterDelay lets the confirmation render once before the program
// exits.
func pickerQuitAfterDelay() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return pickerQuitMsg{}
	})
}

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.quitting {
		if _, ok := msg.(pickerQuitMsg); ok {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - 4
		m.viewport, cmd = m.viewport.Update(msg)
		m.ready = true
		return m, cmd
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			m.selected = -1
			return m, pickerQuitAfterDelay()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			} else if len(m.items) > 0 {
				m.selected = len(m.items) - 1
			}
			m.refresh()
		case "down", "j":
			if m.selected < len(m.items)-1 {
				m.selected++
			} else if len(m.items) > 0 {
				m.selected = 0
			}
			m.refresh()
		case "home", "g":
			m.selected = 0
			m.refresh()
		case "end", "G":
			if len(m.items) > 0 {
				m.selected = len(m.items) - 1
			}
			m.refresh()
		case "enter":
			if m.selected >= 0 && m.selected < len(m.items) {
				m.quitting = true
				return m, pickerQuitAfterDelay()
			}
		default:
			// A single digit jumps straight to that row.
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				idx := int(key[0] - '1')
				if idx < len(m.items) {
					m.selected = idx
					m.refresh()
				}
			}
		}
		return m, nil
	case pickerQuitMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m *pickerModel) refresh() {
	m.viewport.SetContent(buildPickerContent(m.items, m.selected))
}

func (m *pickerModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(m.title))
	b.WriteString(" ")
	switch {
	case m.quitting && m.selected >= 0:
		b.WriteString(pickerHelpStyle.Render(fmt.Sprintf("selected #%d", m.selected+1)))
	case m.quitting:
		b.WriteString(pickerHelpStyle.Render("cancelled"))
	default:
		b.WriteString(pickerHelpStyle.Render("↑/↓ select · 1-9 jump · Enter download · q cancel"))
	}
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	return b.String()
}

// RunPicker shows candidates in an interactive list and returns the chosen
// index, or -1 when the user cancels.
func RunPicker(title string, items []PickerItem) (int, error) {
	model := newPickerModel(title, items)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(os.Stderr))
	result, err := p.Run()
	if err != nil {
		return -1, err
	}
	if m, ok := result.(*pickerModel); ok {
		return m.selected, nil
	}
	return -1, nil
}
