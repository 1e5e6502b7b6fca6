package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/planet/internal/report"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

type reportView struct {
	Month         string            `json:"month"`
	CompletedDays []int             `json:"completedDays"`
	Count         int               `json:"count"`
	Quests        []planetsdk.Quest `json:"quests"`
	Day           *dayView          `json:"day,omitempty"`
}

type dayView struct {
	Date  string           `json:"date"`
	Quest *planetsdk.Quest `json:"quest"`
}

func (c *cli) reportCmd() *cobra.Command {
	var day int

	cmd := &cobra.Command{
		Use:   "report [YYYY-MM]",
		Short: "Show a month calendar of completed quests",
		Long: `Show a calendar for the month with a * on every day a quest was completed.
Today is shown in brackets. Pass --day to see the quest of one day.`,
		Example: `  planet report
  planet report 2026-09 --day 14`,
		Args: maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := c.now()
			loc := now.Location()
			year, month := now.Year(), now.Month()
			if len(args) == 1 {
				var err error
				if year, month, err = parseMonth(args[0]); err != nil {
					return err
				}
			}

			first, last := report.MonthRange(year, month, loc)
			if cmd.Flags().Changed("day") && (day < 1 || day > last.Day()) {
				return invalidInput("--day must be between 1 and %d", last.Day())
			}

			quests, err := c.app.Queries.MyQuestsHistory(cmd.Context(), first, last)
			if err != nil {
				return err
			}

			completed := report.CompletedDays(quests, year, month, loc)
			cal := report.Grid(year, month, now, completed)

			view := reportView{
				Month:         first.Format("2006-01"),
				CompletedDays: completed,
				Count:         cal.Count(),
				Quests:        quests,
			}
			if view.CompletedDays == nil {
				view.CompletedDays = []int{}
			}
			if view.Quests == nil {
				view.Quests = []planetsdk.Quest{}
			}
			if day > 0 {
				date := time.Date(year, month, day, 0, 0, 0, 0, loc)
				view.Day = &dayView{
					Date:  date.Format(planetsdk.DateLayout),
					Quest: report.QuestOn(quests, date),
				}
			}

			return c.render(cmd, view, func(w io.Writer) error {
				if err := report.Render(w, cal); err != nil {
					return err
				}
				if view.Day == nil {
					return nil
				}

				fmt.Fprintln(w)
				if view.Day.Quest == nil {
					_, err := fmt.Fprintf(w, "No quest completed on %s.\n", view.Day.Date)
					return err
				}
				return printQuest(w, view.Day.Quest)
			})
		},
	}

	cmd.Flags().IntVar(&day, "day", 0, "show the quest completed on this day of the month")
	return cmd
}
