package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/taskflow/internal/labor"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	From       string     `json:"from,omitempty"`
	To         string     `json:"to,omitempty"`
	Count      int        `json:"count"`
	Users      []jsonUser `json:"users"`
}

type jsonUser struct {
	UserID       int64     `json:"user_id"`
	UserName     string    `json:"user_name"`
	TotalPlanned float64   `json:"total_planned"`
	TotalActual  float64   `json:"total_actual"`
	Days         []jsonDay `json:"daily_distribution"`
}

type jsonDay struct {
	Date      string     `json:"date"`
	Planned   float64    `json:"planned_labor"`
	Actual    float64    `json:"actual_labor"`
	Remaining float64    `json:"remaining_labor"`
	Tasks     []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status,omitempty"`
}

// ToJSON writes the distributions as an indented document. The window is
// taken from the first user's buckets.
func ToJSON(dists []labor.UserDistribution, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(dists),
		Users:      []jsonUser{},
	}
	if len(dists) > 0 && len(dists[0].DailyDistribution) > 0 {
		days := dists[0].DailyDistribution
		export.From = labor.FormatDate(days[0].Date)
		export.To = labor.FormatDate(days[len(days)-1].Date)
	}

	for _, d := range dists {
		u := jsonUser{UserID: d.UserID, UserName: d.UserName, Days: []jsonDay{}}
		for _, b := range d.DailyDistribution {
			day := jsonDay{
				Date:      labor.FormatDate(b.Date),
				Planned:   b.PlannedLabor,
				Actual:    b.ActualLabor,
				Remaining: b.RemainingLabor,
				Tasks:     []jsonTask{},
			}
			for _, t := range b.Tasks {
				day.Tasks = append(day.Tasks, jsonTask{
					ID:          t.ID,
					Description: t.Description,
					Priority:    string(t.Priority),
					Status:      t.Status,
				})
			}
			u.TotalPlanned += b.PlannedLabor
			u.TotalActual += b.ActualLabor
			u.Days = append(u.Days, day)
		}
		export.Users = append(export.Users, u)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
