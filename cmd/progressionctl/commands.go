package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mewayz/progression/internal/model"
	"github.com/mewayz/progression/internal/service"
)

func init() {
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(rankingsCmd)
	rootCmd.AddCommand(positionCmd)
	rootCmd.AddCommand(awardCmd)
	rootCmd.AddCommand(achievementCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(resetWindowCmd)
	rootCmd.AddCommand(pendingRewardsCmd)
	rootCmd.AddCommand(cacheFlushCmd)

	rankingsCmd.Flags().IntP("limit", "n", service.DefaultRankingsLimit, "Number of entries to show")

	awardCmd.Flags().StringP("source", "s", "manual", "Award source recorded with the grant")
	awardCmd.Flags().Float64P("quality", "q", -1, "Quality score 0-100 (omit for none)")

	achievementCmd.Flags().String("name", "", "Display name of the achievement")
	achievementCmd.Flags().String("tier", string(model.TierBronze), "Achievement tier")
	achievementCmd.Flags().Int64("xp", 0, "XP reward credited with the achievement")
}

// ─── leaderboards ───────────────────────────────────────────────────────────

var recomputeCmd = &cobra.Command{
	Use:   "recompute LEADERBOARD_ID",
	Short: "Rebuild and publish one leaderboard snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := current.leaderboards.Recompute(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Recompute every active leaderboard once",
	Long: `Run one leaderboard cycle, the same pass the server performs on its
interval. Failed leaderboards are listed in the report and make the command
exit non-zero; the others are still published.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := current.cycle.RunOnce(cmd.Context())
		if perr := printJSON(report); perr != nil {
			return perr
		}
		return err
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings LEADERBOARD_ID",
	Short: "Show the top of a published snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		ranked, err := current.leaderboards.GetCurrentRankings(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(ranked) == 0 {
			fmt.Fprintln(os.Stdout, "No rankings published.")
			return nil
		}
		for _, e := range ranked {
			fmt.Fprintf(os.Stdout, "%6d  %-24s %12.2f  %s\n", e.Rank, e.UserID, e.Score, e.Change)
		}
		return nil
	},
}

var positionCmd = &cobra.Command{
	Use:   "position LEADERBOARD_ID USER_ID",
	Short: "Show one user's standing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := current.leaderboards.GetUserPosition(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(pos)
	},
}

var cacheFlushCmd = &cobra.Command{
	Use:   "cache-flush LEADERBOARD_ID",
	Short: "Drop the cached snapshot so reads fall back to the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if current.cache == nil {
			return fmt.Errorf("ranking cache is not enabled (REDIS_ENABLED)")
		}
		if err := current.cache.Invalidate(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("flush cache: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Cache flushed for %s\n", args[0])
		return nil
	},
}

// ─── progression ────────────────────────────────────────────────────────────

var awardCmd = &cobra.Command{
	Use:   "award USER_ID AMOUNT",
	Short: "Credit XP to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		source, _ := cmd.Flags().GetString("source")

		var meta model.AwardMetadata
		if cmd.Flags().Changed("quality") {
			q, _ := cmd.Flags().GetFloat64("quality")
			meta.QualityScore = &q
		}

		res, err := current.progression.Award(cmd.Context(), args[0], amount, source, meta)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Credited %d XP (x%.2f) to %s: level %d, total %d\n",
			res.Credited, res.Multiplier, args[0], res.Progress.CurrentLevel, res.Progress.TotalXP)
		for _, f := range res.RewardFailures {
			fmt.Fprintf(os.Stderr, "reward not dispatched: %v\n", f)
		}
		return nil
	},
}

var achievementCmd = &cobra.Command{
	Use:   "achievement USER_ID ACHIEVEMENT_ID",
	Short: "Record an earned achievement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		tier, _ := cmd.Flags().GetString("tier")
		xp, _ := cmd.Flags().GetInt64("xp")
		if name == "" {
			name = args[1]
		}

		credited, err := current.activity.RecordAchievement(cmd.Context(), &model.EarnedAchievement{
			UserID:        args[0],
			AchievementID: args[1],
			Name:          name,
			Tier:          model.AchievementTier(tier),
			XPReward:      xp,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Achievement %s recorded for %s (%d XP credited)\n", args[1], args[0], credited)
		return nil
	},
}

var streakCmd = &cobra.Command{
	Use:   "streak USER_ID STREAK_TYPE increment|maintain|break",
	Short: "Apply a streak action",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := current.progression.UpdateStreak(cmd.Context(), args[0], args[1], model.StreakAction(args[2]))
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

var resetWindowCmd = &cobra.Command{
	Use:   "reset-window daily|weekly|monthly|yearly",
	Short: "Zero one windowed XP counter for every user",
	Long: `Reset a windowed XP counter. The engine never does this on its own;
run it from the scheduler that owns the calendar boundaries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := current.progression.ResetWindowedXP(cmd.Context(), model.XPWindow(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Reset %s XP on %d users\n", args[0], n)
		return nil
	},
}

var pendingRewardsCmd = &cobra.Command{
	Use:   "pending-rewards",
	Short: "Count reward grants not yet settled by the rewards service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := current.rewards.CountPending(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%d pending reward grants\n", n)
		return nil
	},
}
