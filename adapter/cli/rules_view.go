package cli

import (
	"fmt"
	"io"

	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
)

// ShortID is the id prefix list views print. Commands accept it in place
// of the full id.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// DescribeSchedule shows a rule's schedule in the app's time zone.
func (a *App) DescribeSchedule(r rules.Rule) string {
	sched := r.Schedule()
	if !sched.IsScheduled() {
		return rules.RealTimeTrigger
	}
	local, err := rules.UTCToLocalTime(sched.TriggerTime(), a.Location, a.Now())
	if err != nil {
		return sched.String()
	}
	return fmt.Sprintf("%s at %s", sched.Interval().Label(), local)
}

// RuleTable writes one row per rule.
func (a *App) RuleTable(w io.Writer, list []rules.Rule) {
	rows := [][]string{{"", "ID", "RULE", "SCHEDULE", "TARGETS"}}
	for _, r := range list {
		rows = append(rows, []string{
			StatusBadge(r.IsActive()),
			ShortID(r.RuleID),
			r.Title(),
			a.DescribeSchedule(r),
			targetsCell(r.WIDs),
		})
	}
	Table(w, rows)
}

func targetsCell(wids []string) string {
	switch len(wids) {
	case 0:
		return "-"
	case 1:
		return wids[0]
	default:
		return fmt.Sprintf("%d chats", len(wids))
	}
}
