package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/flowdeck/internal/events"
)

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string

	width  int
	height int

	// State
	health         HealthState
	pipelines      []pipelineSummary
	activeID       string
	selectedNodeID string
	eventLog       []events.Event

	// Live indicators
	ticker  Ticker
	spinner Spinner

	// UI state
	theme         Theme
	pipelineTable table.Model

	// Communication
	hubEvents chan events.Event

	// Error display
	lastError string
}

// New creates a new watch TUI model pointed at a serve instance's API.
func New(apiURL string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: " ", Width: 2},
			{Title: "Pipeline", Width: 28},
			{Title: "Nodes", Width: 6},
			{Title: "Edges", Width: 6},
			{Title: "State", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{
		apiURL:        apiURL,
		eventLog:      make([]events.Event, 0),
		hubEvents:     make(chan events.Event, 100),
		ticker:        NewTicker(),
		spinner:       NewSpinner(),
		theme:         NewDefaultTheme(),
		pipelineTable: t,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.apiURL) },
		func() tea.Msg { return fetchWorkspace(m.apiURL) },
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, func() tea.Msg { return fetchWorkspace(m.apiURL) }
		default:
			var cmd tea.Cmd
			m.pipelineTable, cmd = m.pipelineTable.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.ticker.Tick()
		m.spinner.Decay()
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case eventMsg:
		e := events.Event(msg)

		// Newest first.
		m.eventLog = append([]events.Event{e}, m.eventLog...)
		if len(m.eventLog) > 50 {
			m.eventLog = m.eventLog[:50]
		}

		m.spinner.OnEvent()
		m.health.Connected = true
		m.lastError = ""

		// Any workspace event can change the summary.
		return m, tea.Batch(
			receiveNextEvent(m.hubEvents),
			func() tea.Msg { return fetchWorkspace(m.apiURL) },
		)

	case workspaceMsg:
		m.pipelines = msg.Pipelines
		m.activeID = msg.ActiveID
		m.selectedNodeID = msg.SelectedNodeID
		m.pipelineTable.SetRows(pipelineRows(msg.Pipelines))

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.Pipelines = msg.Pipelines
		m.health.CatalogSize = msg.CatalogSize
		m.health.Connected = true
		m.health.LastCheck = time.Now()
		m.lastError = ""

		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL)
		})

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "SSE disconnected, reconnecting..."
		// Reconnect after a short delay; the existing receiveNextEvent
		// goroutine is still waiting on the channel and will pick up
		// events from the new subscription.
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return reconnectMsg{}
		})

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL)
		})
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting to flowdeck..."
	}

	header := renderHeader(m.health, m.ticker, m.spinner, m.theme, m.width)
	pipelines := m.renderPipelines()
	eventStream := renderEventStream(m.eventLog, m.theme, m.width)

	var errBar string
	if m.lastError != "" {
		errBar = m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" [q] Quit • [r] Refresh • [↑/↓] Navigate Pipelines")

	parts := []string{header, pipelines, eventStream}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m Model) renderPipelines() string {
	innerWidth := m.width - 4

	if len(m.pipelines) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("PIPELINES"),
			m.theme.Dim.Render("  No pipelines open..."),
		)
		return m.theme.Border.Width(innerWidth).Render(content)
	}

	selection := m.theme.Dim.Render(" selection: none")
	if m.selectedNodeID != "" {
		id := m.selectedNodeID
		if len(id) > 8 {
			id = id[:8]
		}
		selection = m.theme.Highlight.Render(fmt.Sprintf(" selection: node %s", id))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("PIPELINES"),
		m.pipelineTable.View(),
		selection,
	)
	return m.theme.Border.Width(innerWidth).Render(content)
}

func pipelineRows(pipelines []pipelineSummary) []table.Row {
	rows := make([]table.Row, 0, len(pipelines))
	for _, p := range pipelines {
		marker := " "
		if p.Active {
			marker = "▶"
		}
		state := "saved"
		if p.Dirty {
			state = "dirty"
		}
		rows = append(rows, table.Row{
			marker,
			p.Name,
			fmt.Sprintf("%d", p.Nodes),
			fmt.Sprintf("%d", p.Edges),
			state,
		})
	}
	return rows
}
