package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

type orderOptions struct {
	userID int64
	teamID int64
	policy string
	all    bool
}

func newOrderCmd(opts *globalOptions) *cobra.Command {
	oo := &orderOptions{}
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print tasks in the order a policy would pick them up",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runOrder(cmd.OutOrStdout(), oo)
		},
	}
	f := cmd.Flags()
	f.Int64Var(&oo.userID, "user", 0, "only tasks assigned to this user")
	f.Int64Var(&oo.teamID, "team", 0, "only tasks of this team")
	f.StringVar(&oo.policy, "policy", "", "priority, work_size or completion_date (default from config)")
	f.BoolVar(&oo.all, "all", false, "include completed and cancelled tasks")
	return cmd
}

func (o *globalOptions) runOrder(w io.Writer, oo *orderOptions) error {
	_, cfg, err := o.load()
	if err != nil {
		return err
	}
	policy, err := labor.ParsePolicy(cfg.Analytics.DefaultPolicy)
	if oo.policy != "" {
		policy, err = labor.ParsePolicy(oo.policy)
	}
	if err != nil {
		return err
	}

	st, err := o.openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var f store.TaskFilter
	if oo.userID != 0 {
		f.AssigneeID = &oo.userID
	}
	if oo.teamID != 0 {
		f.TeamID = &oo.teamID
	}
	stored, err := st.ListTasks(f)
	if err != nil {
		return err
	}

	tasks := make([]labor.Task, 0, len(stored))
	for _, t := range stored {
		if !oo.all && !store.IsOpen(t.Status) {
			continue
		}
		tasks = append(tasks, t.LaborTask())
	}
	ordered, err := labor.Order(tasks, policy)
	if err != nil {
		return err
	}

	if len(ordered) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tID\tPRIORITY\tSIZE\tSTART\tDUE\tSTATUS\tDESCRIPTION\n")
	for i, t := range ordered {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			i+1, t.ID, t.Priority, t.WorkSize,
			labor.FormatDate(t.StartDate), labor.FormatDate(t.CompletionDate),
			t.Status, t.Description,
		)
	}
	return tw.Flush()
}
