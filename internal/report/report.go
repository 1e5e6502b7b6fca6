// Package report builds the monthly calendar of completed quests.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

// GridCells is the number of cells in a month grid: six Sunday-first weeks.
const GridCells = 42

// MonthRange returns the first and last day of the month, at midnight in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (first, last time.Time) {
	first = time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last = first.AddDate(0, 1, -1)
	return first, last
}

// CompletedDays returns the distinct days of the month, ascending, on which
// a quest was completed. completedAt is read in loc.
func CompletedDays(quests []planetsdk.Quest, year int, month time.Month, loc *time.Location) []int {
	var days []int
	for _, q := range quests {
		at, ok := completedIn(q, loc)
		if !ok || at.Year() != year || at.Month() != month {
			continue
		}
		if !slices.Contains(days, at.Day()) {
			days = append(days, at.Day())
		}
	}
	slices.Sort(days)
	return days
}

// QuestOn returns the quest completed on the given day, or nil.
func QuestOn(quests []planetsdk.Quest, day time.Time) *planetsdk.Quest {
	for i, q := range quests {
		at, ok := completedIn(q, day.Location())
		if !ok {
			continue
		}
		if y, m, d := at.Date(); y == day.Year() && m == day.Month() && d == day.Day() {
			return &quests[i]
		}
	}
	return nil
}

func completedIn(q planetsdk.Quest, loc *time.Location) (time.Time, bool) {
	if !q.IsCompleted || q.CompletedAt == nil || q.CompletedAt.IsZero() {
		return time.Time{}, false
	}
	return q.CompletedAt.In(loc), true
}

type Cell struct {
	Date     time.Time
	InMonth  bool
	Today    bool
	HasQuest bool
}

// Calendar is one month laid out as a grid.
type Calendar struct {
	Year  int
	Month time.Month
	Cells [GridCells]Cell
}

// Grid lays out the month starting on the Sunday on or before the 1st.
// today is compared by calendar date in its own location; completed are the
// days of the month to flag.
func Grid(year int, month time.Month, today time.Time, completed []int) Calendar {
	loc := today.Location()
	first, _ := MonthRange(year, month, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	ty, tm, td := today.Date()

	cal := Calendar{Year: year, Month: month}
	for i := range cal.Cells {
		d := start.AddDate(0, 0, i)
		inMonth := d.Month() == month
		y, m, day := d.Date()
		cal.Cells[i] = Cell{
			Date:     d,
			InMonth:  inMonth,
			Today:    y == ty && m == tm && day == td,
			HasQuest: inMonth && slices.Contains(completed, day),
		}
	}
	return cal
}

// Count is the number of flagged days in the month.
func (c Calendar) Count() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.HasQuest {
			n++
		}
	}
	return n
}

// Render writes the calendar as text. Completed days are marked with "*",
// today is bracketed and days outside the month are blank.
func Render(w io.Writer, cal Calendar) error {
	var b strings.Builder

	title := fmt.Sprintf("%s %d", cal.Month, cal.Year)
	fmt.Fprintf(&b, "%*s\n", (7*5+len(title))/2, title)
	b.WriteString("  Sun  Mon  Tue  Wed  Thu  Fri  Sat\n")

	for week := range GridCells / 7 {
		row := cal.Cells[week*7 : week*7+7]
		if !slices.ContainsFunc(row, func(c Cell) bool { return c.InMonth }) {
			continue
		}
		for _, cell := range row {
			b.WriteString(renderCell(cell))
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\n%d day(s) completed\n", cal.Count())

	_, err := io.WriteString(w, b.String())
	return err
}

func renderCell(c Cell) string {
	if !c.InMonth {
		return "     "
	}

	mark := " "
	if c.HasQuest {
		mark = "*"
	}
	day := fmt.Sprintf("%2d", c.Date.Day())
	if c.Today {
		return "[" + day + "]" + mark
	}
	return fmt.Sprintf("  %s%s", day, mark)
}
