package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuowzz/lazada-bot/internal/models"
	"github.com/tuowzz/lazada-bot/internal/server"
	"github.com/tuowzz/lazada-bot/internal/validation"
)

func resolveCmd() *cobra.Command {
	var asJSON bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "resolve [keyword]",
		Short: "Resolve a keyword once and print the link",
		Long: `Run the resolver for a single keyword without sending a reply.

Examples:
  lazada-bot resolve "หูฟังบลูทูธ"
  lazada-bot resolve 4105390617 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.LazadaAppKey == "" || cfg.LazadaAppSecret == "" {
				return errors.New("LAZADA_APP_KEY and LAZADA_APP_SECRET are required")
			}
			// One-off lookups are not analytics.
			cfg.DatabaseURL = ""

			logger := zap.NewNop()
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				if logger, err = newLogger(cfg); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			comps, err := server.Wire(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Close()

			keyword := validation.NormalizeKeyword(strings.Join(args, " "))
			mode, _ := validation.DetectLookupMode(keyword)
			resp := models.ResolveResponse{
				Keyword:          keyword,
				LookupMode:       mode.String(),
				ResolutionResult: comps.Resolver.Resolve(ctx, keyword),
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(resp)
			}
			fmt.Fprintf(out, "keyword:  %s (%s)\n", resp.Keyword, resp.LookupMode)
			fmt.Fprintf(out, "outcome:  %s\n", resp.Outcome)
			if resp.DisplayName != "" {
				fmt.Fprintf(out, "product:  %s\n", resp.DisplayName)
			}
			fmt.Fprintf(out, "url:      %s\n", resp.URL)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	cmd.Flags().BoolP("verbose", "v", false, "log resolver steps to stderr")

	return cmd
}
