package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/export"
	"github.com/sadopc/taskflow/internal/labor"
)

type exportOptions struct {
	userID int64
	teamID int64
	from   string
	to     string
	policy string
	format string
	output string
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	eo := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a daily workload distribution to CSV or JSON",
		Long: `Export the daily labor distribution of one user (--user) or of every
member of a team (--team). With --team and --policy, each member's tasks are
ordered by the policy first, as the redistribute endpoint does.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.runExport(eo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&eo.userID, "user", 0, "user ID")
	f.Int64Var(&eo.teamID, "team", 0, "team ID")
	f.StringVar(&eo.from, "from", "", "first day, YYYY-MM-DD (default today)")
	f.StringVar(&eo.to, "to", "", "last day, YYYY-MM-DD")
	f.StringVar(&eo.policy, "policy", "", "ordering policy: priority, work_size or completion_date")
	f.StringVar(&eo.format, "format", "", "csv or json (default from the output extension, else csv)")
	f.StringVarP(&eo.output, "output", "o", "", "output file (default taskflow-workload-<from>.<format>)")
	cmd.MarkFlagsMutuallyExclusive("user", "team")
	cmd.MarkFlagsOneRequired("user", "team")
	return cmd
}

func (o *globalOptions) runExport(eo *exportOptions) (string, error) {
	format, err := exportFormat(eo.format, eo.output)
	if err != nil {
		return "", err
	}

	_, cfg, err := o.load()
	if err != nil {
		return "", err
	}
	st, err := o.openStore(cfg)
	if err != nil {
		return "", err
	}
	defer st.Close()
	an := newAnalytics(st, cfg)

	from, to, err := window(an, eo.from, eo.to)
	if err != nil {
		return "", err
	}

	policy := an.DefaultPolicy()
	if eo.policy != "" {
		if policy, err = labor.ParsePolicy(eo.policy); err != nil {
			return "", err
		}
	}

	var dists []labor.UserDistribution
	switch {
	case eo.userID != 0:
		d, err := an.UserDistribution(eo.userID, policy, from, to)
		if err != nil {
			return "", err
		}
		dists = []labor.UserDistribution{*d}
	case eo.policy != "":
		if dists, err = an.Redistribute(eo.teamID, policy, from, to); err != nil {
			return "", err
		}
	default:
		if dists, err = an.TeamDistribution(eo.teamID, from, to); err != nil {
			return "", err
		}
	}

	path := eo.output
	if path == "" {
		path = fmt.Sprintf("taskflow-workload-%s.%s", labor.FormatDate(from), format)
	}
	if format == "json" {
		err = export.ToJSON(dists, path)
	} else {
		err = export.ToCSV(dists, path)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// exportFormat picks the format from the flag, then the file extension.
func exportFormat(flag, output string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(flag))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		if f != "json" {
			f = "csv"
		}
	}
	if f != "csv" && f != "json" {
		return "", errors.New("--format must be csv or json")
	}
	return f, nil
}
