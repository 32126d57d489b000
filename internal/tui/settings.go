package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

// Stored setting keys.
const (
	settingWindowDays    = "window_days"
	settingDefaultPolicy = "default_policy"
	settingCapacity      = "daily_capacity"
	settingWeekStart     = "week_start"
)

type settingsModel struct {
	store     *store.Store
	analytics *analytics.Service
	width     int
	height    int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	windowDays *string
	policy     *string
	capacity   *string
	weekStart  *string
}

func newSettingsModel(s *store.Store, an *analytics.Service) settingsModel {
	wd, p, c, ws := "", "", "", ""
	return settingsModel{
		store:      s,
		analytics:  an,
		windowDays: &wd,
		policy:     &p,
		capacity:   &c,
		weekStart:  &ws,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.windowDays = s.getVal(settingWindowDays, "14")
	*s.policy = s.getVal(settingDefaultPolicy, string(labor.ByPriority))
	*s.capacity = s.getVal(settingCapacity, "8")
	*s.weekStart = s.getVal(settingWeekStart, "monday")

	policyOptions := make([]huh.Option[string], len(labor.Policies))
	for i, p := range labor.Policies {
		policyOptions[i] = huh.NewOption(policyLabel(p), string(p))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Workload window (days)").Value(s.windowDays).Validate(validateWindowDays),
			huh.NewSelect[string]().Title("Default ordering").Options(policyOptions...).Value(s.policy),
		).Title("Workload"),
		huh.NewGroup(
			huh.NewInput().Title("Daily capacity (hours)").Value(s.capacity).Validate(validateHours),
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, func() tea.Msg { return errStatus("Settings error: %v", err) }
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return statusMsg{text: "Settings saved"} })
	}

	return s, cmd
}

// saveSettings stores the form values and applies the workload defaults to
// the running analytics service.
func (s settingsModel) saveSettings() error {
	values := [][2]string{
		{settingWindowDays, *s.windowDays},
		{settingDefaultPolicy, *s.policy},
		{settingCapacity, *s.capacity},
		{settingWeekStart, *s.weekStart},
	}
	for _, kv := range values {
		if err := s.store.SetSetting(kv[0], kv[1]); err != nil {
			return err
		}
	}
	days, _ := strconv.Atoi(*s.windowDays)
	s.analytics.SetDefaults(days, labor.Policy(*s.policy))
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case settingWindowDays:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d days", n)
		}
	case settingCapacity:
		if h, err := strconv.ParseFloat(v, 64); err == nil {
			return fmt.Sprintf("%.1f hours", h)
		}
	case settingDefaultPolicy:
		if p, err := labor.ParsePolicy(v); err == nil {
			return policyLabel(p)
		}
	}
	return v
}

func policyLabel(p labor.Policy) string {
	switch p {
	case labor.ByPriority:
		return "Priority"
	case labor.ByWorkSize:
		return "Largest first"
	case labor.ByCompletionDate:
		return "Earliest due"
	}
	return string(p)
}

func validateWindowDays(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > labor.MaxWindowDays {
		return fmt.Errorf("enter 1 to %d", labor.MaxWindowDays)
	}
	return nil
}
