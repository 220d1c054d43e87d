package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"searchadmin/internal/domain"
	"searchadmin/internal/monitor"
	"searchadmin/internal/notify"
	"searchadmin/internal/wizard"
)

type screen int

const (
	screenWizard screen = iota
	screenMonitor
)

type currentLoadedMsg struct {
	settings *domain.SearchSettings
	err      error
}

// Deps wires the app to the backend.
type Deps struct {
	Ctx        context.Context
	Wizard     *wizard.Wizard
	Settings   SettingsPort
	Current    func(context.Context) (*domain.SearchSettings, error)
	NewMonitor func() *monitor.Monitor
	Notes      *notify.Center
	Styles     Styles

	// StartInMonitor opens the monitor first, used when a re-index is already pending.
	StartInMonitor bool
}

// App switches between the wizard and the re-index monitor. A successful
// re-index commit redirects to the monitor; the monitor hands back to the
// wizard once the pending settings clear.
type App struct {
	deps    Deps
	screen  screen
	wizard  WizardModel
	monitor MonitorModel
}

// NewApp creates the root model.
func NewApp(deps Deps) App {
	if deps.Ctx == nil {
		deps.Ctx = context.Background()
	}
	return App{
		deps:   deps,
		screen: screenWizard,
		wizard: NewWizardModel(deps.Ctx, deps.Wizard, deps.Settings, deps.Notes, deps.Styles),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	if a.deps.StartInMonitor {
		return func() tea.Msg { return redirectMsg{} }
	}
	return a.wizard.Init()
}

func (a App) openMonitor() (App, tea.Cmd) {
	a.screen = screenMonitor
	a.monitor = NewMonitorModel(a.deps.Ctx, a.deps.NewMonitor(), a.deps.Settings, a.deps.Notes, a.deps.Styles, false)
	return a, a.monitor.Init()
}

func (a App) closeMonitor() (App, tea.Cmd) {
	a.monitor.Stop()
	a.screen = screenWizard
	ctx, current := a.deps.Ctx, a.deps.Current
	return a, func() tea.Msg {
		s, err := current(ctx)
		return currentLoadedMsg{settings: s, err: err}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case redirectMsg:
		return a.openMonitor()

	case currentLoadedMsg:
		if msg.err != nil {
			a.deps.Notes.Notify(notify.LevelError, "Failed to reload search settings: "+msg.err.Error())
		} else if msg.settings != nil {
			a.deps.Wizard.Reset(*msg.settings)
			a.wizard = NewWizardModel(a.deps.Ctx, a.deps.Wizard, a.deps.Settings, a.deps.Notes, a.deps.Styles)
		}
		return a, nil

	case tea.WindowSizeMsg:
		w, _ := a.wizard.Update(msg)
		a.wizard = w.(WizardModel)
		if a.screen == screenMonitor {
			mm, _ := a.monitor.Update(msg)
			a.monitor = mm.(MonitorModel)
		}
		return a, nil

	case monitorStoppedMsg:
		if a.screen != screenMonitor {
			return a, nil
		}
		mm, cmd := a.monitor.Update(msg)
		a.monitor = mm.(MonitorModel)
		if a.monitor.Finished() {
			return a.closeMonitor()
		}
		return a, cmd

	case cancelDoneMsg:
		if a.screen != screenMonitor {
			return a, nil
		}
		mm, cmd := a.monitor.Update(msg)
		a.monitor = mm.(MonitorModel)
		if a.monitor.Finished() {
			return a.closeMonitor()
		}
		return a, cmd

	case tea.KeyMsg:
		if a.screen == screenMonitor && (msg.String() == "esc" || msg.String() == "b") {
			return a.closeMonitor()
		}
	}

	if a.screen == screenMonitor {
		mm, cmd := a.monitor.Update(msg)
		a.monitor = mm.(MonitorModel)
		return a, cmd
	}
	w, cmd := a.wizard.Update(msg)
	a.wizard = w.(WizardModel)
	return a, cmd
}

// View implements tea.Model.
func (a App) View() string {
	if a.screen == screenMonitor {
		return a.monitor.View()
	}
	return a.wizard.View()
}
