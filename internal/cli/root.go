// Package cli wires taskflow's commands: the API server, the terminal
// dashboard and the one-shot tools.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/config"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "taskflow",
		Short:         "Team task tracking with daily workload distribution",
		Long:          `taskflow tracks team tasks and spreads their planned and actual labor over the days they span, so managers can see who is overloaded and in which order work should be picked up.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML or JSON config file")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to the SQLite database (overrides storage.path)")

	root.AddCommand(
		newServeCmd(opts),
		newDashboardCmd(opts),
		newExportCmd(opts),
		newOrderCmd(opts),
		newRemindCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	root := newRootCmd()
	err := root.Execute()
	if err != nil {
		root.PrintErrln("Error:", err)
	}
	return err
}

// load reads the config file, if any, and makes it current.
func (o *globalOptions) load() (*config.Manager, *config.Config, error) {
	m := config.NewManager(o.configPath)
	cfg, err := m.Load()
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

// openStore opens the database named by --db, the config, or the default
// location, in that order.
func (o *globalOptions) openStore(cfg *config.Config) (*store.Store, error) {
	path := o.dbPath
	if path == "" {
		path = cfg.Storage.Path
	}
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return st, nil
}

func newAnalytics(st *store.Store, cfg *config.Config) *analytics.Service {
	return analytics.New(st, cfg.Analytics.DefaultWindowDays, labor.Policy(cfg.Analytics.DefaultPolicy))
}

// parseDateFlag turns an optional YYYY-MM-DD flag into a date.
func parseDateFlag(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", name, v)
	}
	return &d, nil
}

// window resolves --from/--to against the analytics defaults.
func window(an *analytics.Service, fromFlag, toFlag string) (time.Time, time.Time, error) {
	from, err := parseDateFlag("from", fromFlag)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDateFlag("to", toFlag)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return an.Window(from, to)
}
