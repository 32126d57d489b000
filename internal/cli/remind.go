package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/logx"
	"github.com/sadopc/taskflow/internal/reminder"
)

func newRemindCmd(opts *globalOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run the due-date reminder sweep once",
		Long: `Create due_soon and overdue notifications for the assignees of open
tasks, as the scheduled sweep in "serve" does. Running it again on the same
day does not repeat notifications.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("days") {
				if days < 0 {
					return fmt.Errorf("--days must not be negative, got %d", days)
				}
				cfg.Reminders.DueWithinDays = days
			}
			st, err := opts.openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			log := logx.NewConsole(cfg.Logging.Level)
			res, err := reminder.New(st, cfg.Reminders, log).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d due soon, %d overdue, %d already sent today\n",
				res.DueSoon, res.Overdue, res.Skipped)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "look this many days ahead (default reminders.due_within_days)")
	return cmd
}
