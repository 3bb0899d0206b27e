package main

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/dturobocup/raubot/pkg/runner"
)

const (
	headerHeight   = 2 // title + blank line
	legendHeight   = 2 // legend row + blank
	progressHeight = 3 // maneuver, step, pose
	footerHeight   = 7 // log box height
	maxLogs        = 5 // number of log messages to show
	borderSize     = 2 // chart border
)

const (
	seriesHeading  = "heading"
	seriesDistance = "distance"
)

// Series colors
var seriesColors = map[string]string{
	seriesHeading:  "51",  // cyan
	seriesDistance: "208", // orange
}

var seriesOrder = []string{seriesHeading, seriesDistance}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	doneStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type runModel struct {
	ctrl     *runner.Controller
	chart    *streamlinechart.Model
	title    string
	width    int // terminal width
	height   int // terminal height
	logs     []string
	state    runner.State
	hasState bool
	lastErr  error
	quitting bool
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// moved reports whether the pose changed since the last state.
func (m *runModel) moved(s runner.State) bool {
	if !m.hasState {
		return true
	}
	return s.Pose.Heading != m.state.Pose.Heading || s.Pose.Distance != m.state.Pose.Distance
}

// Messages from the controller
type stateMsg runner.State
type logMsg string

func waitForState(ctrl *runner.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *runner.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 16 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-progressHeight-footerHeight-borderSize, 8)
	return width, height
}

func (m *runModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func newRunModel(ctrl *runner.Controller, title string) runModel {
	// Heading spans (-pi, pi]; course legs are shorter than 4 m.
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(-4, 4),
	)

	for _, name := range seriesOrder {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name]))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return runModel{
		ctrl:  ctrl,
		chart: &chart,
		title: title,
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		state := runner.State(msg)
		m.lastErr = state.Error
		if state.Error == nil {
			// Freeze the chart while the robot stands still
			if m.moved(state) {
				m.chart.PushDataSet(seriesHeading, state.Pose.Heading)
				m.chart.PushDataSet(seriesDistance, state.Pose.Distance)
				m.chart.DrawAll()
			}
			m.state = state
			m.hasState = true
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Run stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Progress
	sb.WriteString(m.renderProgress())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m runModel) renderProgress() string {
	if !m.hasState {
		return statusStyle.Render("Waiting for first pose...") + "\n\n"
	}
	s := m.state

	// Maneuvers: done, active, pending
	var items []string
	for i, man := range m.ctrl.Plan() {
		switch {
		case i < s.ManeuverIndex || (i == s.ManeuverIndex && s.StepIndex >= s.Steps):
			items = append(items, doneStyle.Render("✓ "+man.Name()))
		case i == s.ManeuverIndex:
			items = append(items, stepStyle.Render("▸ "+man.Name()))
		default:
			items = append(items, pendingStyle.Render("  "+man.Name()))
		}
	}

	var lines []string
	lines = append(lines, strings.Join(items, "  "))

	if s.Done {
		lines = append(lines, doneStyle.Render("Plan complete")+statusStyle.Render("  press 'q' to quit"))
	} else {
		lines = append(lines, fmt.Sprintf("%s %s",
			statusStyle.Render(fmt.Sprintf("[%d/%d]", min(s.StepIndex+1, s.Steps), s.Steps)),
			stepStyle.Render(s.Step)))
	}

	pose := fmt.Sprintf("heading %+.3f rad (%+.0f°)  distance %.2f m  elapsed %.1fs  cmd v=%.2f ω=%+.2f",
		s.Pose.Heading, s.Pose.Heading*180/math.Pi, s.Pose.Distance, s.Pose.Elapsed.Seconds(),
		s.Command.Linear, s.Command.Angular)
	lines = append(lines, statusStyle.Render(pose))

	if m.lastErr != nil {
		lines = append(lines, errStyle.Render(m.lastErr.Error()))
	}
	return strings.Join(lines, "\n")
}

func renderLegend() string {
	var items []string
	for _, name := range seriesOrder {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		unit := "rad"
		if name == seriesDistance {
			unit = "m"
		}
		items = append(items, colorStyle.Render("━━")+" "+name+" ("+unit+")")
	}
	return strings.Join(items, "  ")
}
