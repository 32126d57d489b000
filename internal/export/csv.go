package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sadopc/taskflow/internal/labor"
)

var csvHeader = []string{"User ID", "User", "Date", "Planned", "Actual", "Remaining", "Task IDs"}

// ToCSV writes one row per user per day.
func ToCSV(dists []labor.UserDistribution, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, d := range dists {
		for _, b := range d.DailyDistribution {
			row := []string{
				strconv.FormatInt(d.UserID, 10),
				d.UserName,
				labor.FormatDate(b.Date),
				formatHours(b.PlannedLabor),
				formatHours(b.ActualLabor),
				formatHours(b.RemainingLabor),
				taskIDs(b.Tasks),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

func taskIDs(tasks []labor.Task) string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = strconv.FormatInt(t.ID, 10)
	}
	return strings.Join(ids, ";")
}
