package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

const progressWidth = 20

func (c *cli) tierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tier [YYYY-MM]",
		Short: "Show your tier for this month or a past one",
		Long: `Show the tier earned in a month. Every completed quest awards experience;
levels go from TinyStar up to HappyGalaxy.`,
		Args: maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tier *planetsdk.Tier
				err  error
			)
			if len(args) == 1 {
				year, month, perr := parseMonth(args[0])
				if perr != nil {
					return perr
				}
				tier, err = c.app.Queries.TierForMonth(cmd.Context(), year, month)
			} else {
				tier, err = c.app.Queries.CurrentTier(cmd.Context())
			}
			if err != nil {
				return err
			}

			return c.render(cmd, tier, func(w io.Writer) error {
				return printTier(w, tier)
			})
		},
	}
}

func printTier(w io.Writer, t *planetsdk.Tier) error {
	filled := int(t.Progress() * progressWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled)

	_, err := fmt.Fprintf(w,
		"%s  %s (rank %d/5)\nLevel %d  [%s] %d/%d exp\nTotal: %d exp\n",
		t.Month, t.Tier, t.Rank(), t.Level, bar, t.CurrentExp, t.MaxExp, t.ExperiencePoint,
	)
	return err
}
