package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"searchadmin/internal/domain"
	"searchadmin/internal/monitor"
	"searchadmin/internal/notify"
	"searchadmin/internal/wizard"
)

// CancelPort cancels a pending re-index. The monitor passes a nil wizard; the
// app reseeds its wizard from reloaded settings on the update loop.
type CancelPort interface {
	CancelReindex(ctx context.Context, w *wizard.Wizard) error
}

// statusMsg and monitorStoppedMsg carry their monitor so messages from a
// monitor that was replaced are ignored.
type statusMsg struct {
	mon    *monitor.Monitor
	status monitor.Status
}

type monitorStoppedMsg struct {
	mon *monitor.Monitor
	err error
}

type cancelDoneMsg struct{ err error }

// MonitorModel renders re-index progress while its monitor polls.
type MonitorModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	mon    *monitor.Monitor
	port   CancelPort
	notes  *notify.Center
	styles Styles

	table   table.Model
	spinner spinner.Model
	bar     progress.Model

	status     monitor.Status
	cancelling bool
	finished   bool
	// standalone quits the program when polling ends.
	standalone bool
}

// NewMonitorModel wraps mon. The monitor is started by Init and stopped when
// the screen is left, the re-index is cancelled or the program quits.
func NewMonitorModel(ctx context.Context, mon *monitor.Monitor, port CancelPort, notes *notify.Center, styles Styles, standalone bool) MonitorModel {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Connector", Width: 32},
			{Title: "Status", Width: 14},
			{Title: "Docs re-indexed", Width: 16},
		}),
		table.WithHeight(10),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Bold(true).Foreground(lipgloss.Color(ColorLime))
	t.SetStyles(ts)

	return MonitorModel{
		ctx:        ctx,
		cancel:     cancel,
		mon:        mon,
		port:       port,
		notes:      notes,
		styles:     styles,
		table:      t,
		spinner:    s,
		bar:        progress.New(progress.WithSolidFill(ColorLime), progress.WithWidth(50), progress.WithoutPercentage()),
		status:     monitor.Status{Active: true},
		standalone: standalone,
	}
}

// Init starts polling and the spinner.
func (m MonitorModel) Init() tea.Cmd {
	ctx, mon := m.ctx, m.mon
	run := func() tea.Msg { return monitorStoppedMsg{mon: mon, err: mon.Run(ctx)} }
	return tea.Batch(run, waitForStatus(mon), m.spinner.Tick)
}

// Stop cancels polling.
func (m MonitorModel) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Finished reports whether the pending settings have cleared.
func (m MonitorModel) Finished() bool { return m.finished }

func waitForStatus(mon *monitor.Monitor) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-mon.Updates()
		if !ok {
			return nil
		}
		return statusMsg{mon: mon, status: s}
	}
}

// Update handles monitor events and keys.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(20, msg.Width-20)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		if msg.mon != m.mon {
			return m, nil
		}
		m.status = msg.status
		m.table.SetRows(jobRows(m.status.Jobs))
		return m, waitForStatus(m.mon)

	case monitorStoppedMsg:
		if msg.mon != m.mon {
			return m, nil
		}
		if msg.err == nil {
			m.finished = true
			m.status = m.mon.Snapshot()
			if m.standalone {
				return m, tea.Quit
			}
		}
		return m, nil

	case cancelDoneMsg:
		m.cancelling = false
		if msg.err != nil {
			return m, nil
		}
		// The pending settings are gone; there is nothing left to poll.
		m.finished = true
		m.status.Active, m.status.Pending = false, nil
		m.cancel()
		if m.standalone {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		case "c":
			if m.cancelling || m.finished {
				return m, nil
			}
			m.cancelling = true
			ctx, port := m.ctx, m.port
			return m, func() tea.Msg { return cancelDoneMsg{err: port.CancelReindex(ctx, nil)} }
		case "x":
			if n, ok := m.notes.Latest(); ok {
				m.notes.Dismiss(n.ID)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func jobRows(jobs []domain.ReindexJobStatus) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, table.Row{j.ConnectorName, string(j.Status), fmt.Sprintf("%d", j.DocsReindexed)})
	}
	return rows
}

// View renders progress.
func (m MonitorModel) View() string {
	var sections []string
	sections = append(sections, m.styles.Header.Render("Re-indexing"))

	switch {
	case m.finished:
		sections = append(sections, m.styles.Success.Render("● No pending search settings. The new index is live or was cancelled."))
	case m.status.Pending != nil && m.status.Pending.Embedding != nil:
		sections = append(sections, fmt.Sprintf("%s Switching to %s", m.spinner.View(), m.styles.Active.Render(m.status.Pending.Embedding.Identity())))
	default:
		sections = append(sections, m.spinner.View()+" Waiting for status...")
	}

	sum := m.status.Summary()
	if sum.Total > 0 {
		ratio := float64(sum.Succeeded+sum.Failed) / float64(sum.Total)
		sections = append(sections,
			m.bar.ViewAs(ratio)+"  "+m.styles.Active.Render(fmt.Sprintf("%3.0f%%", ratio*100)),
			m.styles.Label.Render(fmt.Sprintf("%d/%d connectors done • %d failed • %d docs", sum.Succeeded+sum.Failed, sum.Total, sum.Failed, sum.Docs)))
	}
	sections = append(sections, m.styles.Panel.Render(m.table.View()))

	if err := m.status.Err; err != nil && !errors.Is(err, context.Canceled) {
		sections = append(sections, m.styles.Error.Render("Last poll failed: "+err.Error()))
	}
	if n := renderNotifications(m.styles, m.notes.Active()); n != "" {
		sections = append(sections, n)
	}

	help := "c: cancel re-index • x: dismiss • q: quit"
	if !m.standalone {
		help = "c: cancel re-index • esc: back to wizard • x: dismiss • q: quit"
	}
	if m.cancelling {
		help = m.spinner.View() + " Cancelling..."
	}
	sections = append(sections, m.styles.Dim.Render(help))
	return strings.Join(sections, "\n")
}
