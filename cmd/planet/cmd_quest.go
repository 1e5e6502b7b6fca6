package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/planet/internal/report"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

func (c *cli) questCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "Pick, complete and review daily quests",
		Long: `A day has at most one quest. Generate suggestions, approve one of them,
then complete it, optionally with a photo as evidence.`,
	}
	cmd.AddCommand(
		c.questTodayCmd(),
		c.questSuggestionsCmd(),
		c.questGenerateCmd(),
		c.questApproveCmd(),
		c.questCompleteCmd(),
		c.questHistoryCmd(),
	)
	return cmd
}

func (c *cli) questTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's quest",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			quest, err := c.app.Queries.TodayQuest(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, quest, func(w io.Writer) error {
				if quest == nil {
					_, err := fmt.Fprintln(w, "No quest for today yet. Run `planet quest suggestions` to pick one.")
					return err
				}
				return printQuest(w, quest)
			})
		},
	}
}

func (c *cli) questSuggestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggestions",
		Short: "List today's suggestions",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			suggestions, err := c.app.Queries.QuestSuggestions(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, suggestions, func(w io.Writer) error {
				if len(suggestions) == 0 {
					_, err := fmt.Fprintln(w, "No suggestions yet. Run `planet quest generate`.")
					return err
				}
				return printSuggestions(w, suggestions)
			})
		},
	}
}

func (c *cli) questGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Ask for a new set of suggestions",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			suggestions, err := c.app.Queries.GenerateQuestSuggestions(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, suggestions, func(w io.Writer) error {
				return printSuggestions(w, suggestions)
			})
		},
	}
}

func (c *cli) questApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <suggestion-uuid>",
		Short: "Make a suggestion today's quest",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quest, err := c.app.Queries.ApproveQuestSuggestion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd, quest, func(w io.Writer) error {
				fmt.Fprintln(w, "Quest approved. Good luck!")
				return printQuest(w, quest)
			})
		},
	}
}

func (c *cli) questCompleteCmd() *cobra.Command {
	var evidencePath string

	cmd := &cobra.Command{
		Use:   "complete [quest-id]",
		Short: "Complete a quest, by default today's",
		Example: `  planet quest complete --evidence ./walk.jpg
  planet quest complete 42`,
		Args: maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var questID int64
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return invalidInput("quest id %q must be a positive number", args[0])
				}
				questID = id
			} else {
				today, err := c.app.Queries.TodayQuest(ctx)
				if err != nil {
					return err
				}
				if today == nil {
					return invalidInput("there is no quest for today to complete")
				}
				questID = today.ID
			}

			var evidence *planetsdk.Evidence
			if evidencePath != "" {
				ev, err := planetsdk.OpenEvidence(evidencePath)
				if err != nil {
					return err
				}
				evidence = ev
			}

			quest, err := c.app.Queries.CompleteQuest(ctx, questID, evidence)
			if err != nil {
				return err
			}
			return c.render(cmd, quest, func(w io.Writer) error {
				fmt.Fprintln(w, "Quest complete. Well done!")
				return printQuest(w, quest)
			})
		},
	}

	cmd.Flags().StringVar(&evidencePath, "evidence", "", "photo to upload as evidence")
	return cmd
}

func (c *cli) questHistoryCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List quests between two dates (default: this month)",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := c.now()
			start, end := report.MonthRange(now.Year(), now.Month(), now.Location())

			if from != "" {
				t, err := time.ParseInLocation(planetsdk.DateLayout, from, now.Location())
				if err != nil {
					return invalidInput("--from %q must look like 2026-10-01", from)
				}
				start = t
			}
			if to != "" {
				t, err := time.ParseInLocation(planetsdk.DateLayout, to, now.Location())
				if err != nil {
					return invalidInput("--to %q must look like 2026-10-31", to)
				}
				end = t
			}
			if end.Before(start) {
				return invalidInput("--to must not be before --from")
			}

			quests, err := c.app.Queries.MyQuestsHistory(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			return c.render(cmd, quests, func(w io.Writer) error {
				if len(quests) == 0 {
					_, err := fmt.Fprintf(w, "No quests between %s and %s.\n",
						start.Format(planetsdk.DateLayout), end.Format(planetsdk.DateLayout))
					return err
				}
				for _, q := range quests {
					mark := " "
					if q.IsCompleted {
						mark = "x"
					}
					fmt.Fprintf(w, "[%s] %s  #%d %s\n", mark, q.CreatedAt.Format(planetsdk.DateLayout), q.ID, q.Title)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	return cmd
}

func printQuest(w io.Writer, q *planetsdk.Quest) error {
	status := "in progress"
	if q.IsCompleted {
		status = "completed"
		if q.CompletedAt != nil {
			status += " " + formatTime(q.CompletedAt.Time)
		}
	}

	fmt.Fprintf(w, "#%d %s\n", q.ID, q.Title)
	if q.Encouragement != "" {
		fmt.Fprintf(w, "   %s\n", q.Encouragement)
	}
	fmt.Fprintf(w, "   Status: %s\n", status)
	if q.EvidenceImage != nil {
		fmt.Fprintf(w, "   Evidence: %s (%d bytes)\n", q.EvidenceImage.FileName, q.EvidenceImage.Size)
	}
	if q.Feedback != nil && *q.Feedback != "" {
		fmt.Fprintf(w, "   Feedback: %s\n", *q.Feedback)
	}
	return nil
}

func printSuggestions(w io.Writer, suggestions []planetsdk.QuestSuggestion) error {
	for _, s := range suggestions {
		if _, err := fmt.Fprintf(w, "%s  %s\n", s.UUID, s.Title); err != nil {
			return err
		}
	}
	return nil
}
