package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/export"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

const viewCount = 4

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	analytics *analytics.Service
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	overview overviewModel
	tasks    tasksModel
	workload workloadModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
	exportDir string
}

func NewApp(s *store.Store, an *analytics.Service) App {
	h := help.New()
	h.ShowAll = false

	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}

	return App{
		store:      s,
		analytics:  an,
		activeView: viewOverview,
		overview:   newOverviewModel(s, an),
		tasks:      newTasksModel(s),
		workload:   newWorkloadModel(s, an),
		settings:   newSettingsModel(s, an),
		help:       h,
		exportDir:  dir,
	}
}

func (a App) Init() tea.Cmd {
	return a.overview.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.overview.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.workload.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		if a.activeView == viewWorkload {
			a.workload.buildChart()
		}
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input (e.g. a form) sees keys first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			if a.activeView == viewWorkload {
				a.exportPicking = true
				a.exportCursor = 0
				return a, nil
			}
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1, keys.Tab2, keys.Tab3, keys.Tab4):
			a.activeView = viewState(msg.String()[0] - '1')
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewCount
			return a, a.refreshCurrentView()
		}

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case taskCreatedMsg:
		a.status = fmt.Sprintf("Created task %d", msg.task.ID)
		a.statusErr = false
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.overview, cmd = a.overview.update(msg)
		cmds = append(cmds, cmd)
		a.workload, cmd = a.workload.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	// Data messages go to their view even when another one is active.
	case overviewDataMsg:
		a.overview, _ = a.overview.update(msg)
		return a, nil
	case workloadDataMsg:
		a.workload, _ = a.workload.update(msg)
		return a, nil
	case tasksDataMsg, taskLogsMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd
	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewOverview:
		a.overview, cmd = a.overview.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewWorkload:
		a.workload, cmd = a.workload.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewOverview:
		return a.overview.loadData()
	case viewTasks:
		return a.tasks.refresh()
	case viewWorkload:
		return a.workload.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewOverview:
		content = a.overview.view()
	case viewTasks:
		content = a.tasks.view()
	case viewWorkload:
		content = a.workload.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(1, a.height-lipgloss.Height(header)-lipgloss.Height(footer))

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("taskflow")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	left := footerStyle.Render(a.help.View(keys))

	right := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		right = style.Render(" " + a.status)
	}

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Workload"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the workload currently shown to the export directory.
func (a App) doExport(format int) tea.Cmd {
	dist := a.workload.dist
	dir := a.exportDir
	return func() tea.Msg {
		if dist == nil {
			return errStatus("Export error: %v", errors.New("no workload loaded"))
		}
		dists := []labor.UserDistribution{*dist}
		base := fmt.Sprintf("taskflow-workload-%d-%s", dist.UserID, labor.FormatDate(today()))

		var path string
		if format == 0 {
			path = filepath.Join(dir, base+".csv")
			if err := export.ToCSV(dists, path); err != nil {
				return errStatus("CSV error: %v", err)
			}
		} else {
			path = filepath.Join(dir, base+".json")
			if err := export.ToJSON(dists, path); err != nil {
				return errStatus("JSON error: %v", err)
			}
		}
		return exportDoneMsg{path: path}
	}
}
