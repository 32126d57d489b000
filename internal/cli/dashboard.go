package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
	"github.com/sadopc/taskflow/internal/tui"
)

func newDashboardCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := opts.load()
			if err != nil {
				return err
			}
			st, err := opts.openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			an := newAnalytics(st, cfg)
			applyStoredDefaults(st, an)

			p := tea.NewProgram(tui.NewApp(st, an), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

// applyStoredDefaults lets the dashboard's own settings override the config
// file. Missing or invalid settings keep the configured values.
func applyStoredDefaults(st *store.Store, an *analytics.Service) {
	days := st.SettingInt("window_days", 0)
	policy, _ := st.GetSetting("default_policy")
	an.SetDefaults(days, labor.Policy(policy))
}
