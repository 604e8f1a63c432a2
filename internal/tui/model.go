// Package tui provides the Bubble Tea reading interface.
package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/bpsim/internal/controller"
	"github.com/verte-zerg/bpsim/internal/model"
	"github.com/verte-zerg/bpsim/internal/report"
)

// Options configure the display layer.
type Options struct {
	HistorySize int
	ShowTime    bool
}

var (
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	unitStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardStyle     = lipgloss.NewStyle().
			Padding(1, 3).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

var categoryStyles = map[report.Category]lipgloss.Style{
	report.CategoryNormal:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6FBF73")).Bold(true),
	report.CategoryElevated: lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true),
	report.CategoryStage1:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E08A3C")).Bold(true),
	report.CategoryStage2:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true),
	report.CategoryCrisis:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF1F1F")).Bold(true),
}

// Model implements the Bubble Tea reading UI.
type Model struct {
	ctrl *controller.Controller
	opts Options

	width  int
	height int

	history     []model.Reading
	showHistory bool
	historyTbl  table.Model
}

// NewModel constructs a reading TUI model over a started controller.
func NewModel(ctrl *controller.Controller, opts Options) *Model {
	if opts.HistorySize <= 0 {
		opts.HistorySize = 8
	}
	m := &Model{
		ctrl:       ctrl,
		opts:       opts,
		historyTbl: newHistoryTable(opts.HistorySize),
	}
	if r, ok := ctrl.Current(); ok {
		m.pushHistory(r)
	}
	return m
}

func newHistoryTable(height int) table.Model {
	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Sys", Width: 5},
		{Title: "Dia", Width: 5},
		{Title: "Category", Width: 22},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(height),
	)
	styles := table.DefaultStyles()
	styles.Selected = styles.Cell
	t.SetStyles(styles)
	return t
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ", "enter", "n":
			m.advance()
			return m, nil
		case "h":
			m.showHistory = !m.showHistory
			return m, nil
		case "r":
			m.reset()
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

func (m *Model) advance() {
	// Durability loss is surfaced through the view error line; the cursor
	// still advances.
	_ = m.ctrl.Next()
	if r, ok := m.ctrl.Current(); ok {
		m.pushHistory(r)
	}
}

func (m *Model) reset() {
	if err := m.ctrl.Reset(); err != nil {
		return
	}
	m.history = nil
	m.historyTbl.SetRows(nil)
	if r, ok := m.ctrl.Current(); ok {
		m.pushHistory(r)
	}
}

func (m *Model) pushHistory(r model.Reading) {
	m.history = append(m.history, r)
	if len(m.history) > m.opts.HistorySize {
		m.history = m.history[len(m.history)-m.opts.HistorySize:]
	}
	rows := make([]table.Row, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0; i-- {
		h := m.history[i]
		rows = append(rows, table.Row{
			formatReadingTime(h),
			strconv.Itoa(h.Systolic),
			strconv.Itoa(h.Diastolic),
			string(report.Categorize(h)),
		})
	}
	m.historyTbl.SetRows(rows)
}

// View implements tea.Model.
func (m *Model) View() string {
	view := m.ctrl.View()
	if view.Loading {
		return "Loading..."
	}

	var content string
	if view.Reading == nil {
		content = errorStyle.Render("No reading available")
	} else {
		content = m.renderCard(*view.Reading)
	}
	if m.showHistory {
		content = lipgloss.JoinVertical(lipgloss.Center, content, m.historyTbl.View())
	}
	if view.Err != "" {
		content = lipgloss.JoinVertical(lipgloss.Center, content, errorStyle.Render(view.Err))
	}
	footer := footerStyle.Render("space next · h history · r reset · q quit")

	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderCard(r model.Reading) string {
	category := report.Categorize(r)
	categoryStyle, ok := categoryStyles[category]
	if !ok {
		categoryStyle = valueStyle
	}

	lines := []string{
		valueStyle.Render(fmt.Sprintf("%d / %d", r.Systolic, r.Diastolic)) + " " + unitStyle.Render("mmHg"),
		categoryStyle.Render(string(category)),
	}
	if m.opts.ShowTime {
		lines = append(lines, timeStyle.Render(formatReadingTime(r)))
	}
	lines = append(lines, progressStyle.Render(
		fmt.Sprintf("reading %d of %d", m.ctrl.Index()+1, m.ctrl.Size()),
	))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func formatReadingTime(r model.Reading) string {
	return time.UnixMilli(r.Timestamp).Local().Format("15:04:05")
}
