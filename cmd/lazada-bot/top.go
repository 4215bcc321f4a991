package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tuowzz/lazada-bot/internal/db"
	"github.com/tuowzz/lazada-bot/internal/models"
)

func topCmd() *cobra.Command {
	var outcome string
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the most looked-up keywords for an outcome",
		Long: `List the most frequent keywords recorded by the analytics store.
Keywords that keep ending up degraded are candidates for a campaign link.

Example:
  lazada-bot top --outcome degraded --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch outcome {
			case models.OutcomeMatched, models.OutcomePopular, models.OutcomeDegraded:
			default:
				return fmt.Errorf("unknown outcome %q", outcome)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.AnalyticsEnabled() {
				return errors.New("DATABASE_URL is required")
			}

			database, err := db.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			lookups, err := database.TopKeywords(cmd.Context(), outcome, limit)
			if err != nil {
				return fmt.Errorf("query keywords: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COUNT\tLAST SEEN\tKEYWORD")
			for _, l := range lookups {
				fmt.Fprintf(w, "%d\t%s\t%s\n", l.Count, l.LastSeenAt.Format("2006-01-02 15:04"), l.Keyword)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&outcome, "outcome", "o", models.OutcomeDegraded, "outcome (matched, popular, degraded)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum keywords")

	return cmd
}
