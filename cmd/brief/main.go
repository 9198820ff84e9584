package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/chain-brief/pkg/config"
	"github.com/chain-brief/pkg/observability"
	"github.com/chain-brief/pkg/pipeline"
)

type flags struct {
	lang    string
	chain   string
	json    bool
	timeout time.Duration
	verbose bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:          "brief <address or text>",
		Short:        "One-shot due-diligence brief for an EVM address",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if f.verbose {
				level = "debug"
			}
			observability.SetupLogger(level, false)

			if f.chain != "" {
				if err := os.Setenv("CHAIN", f.chain); err != nil {
					return fmt.Errorf("set chain: %w", err)
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()

			p, err := pipeline.Build(ctx, cfg, nil)
			if err != nil {
				return err
			}
			res, err := p.Run(ctx, strings.Join(args, " "), f.lang)
			if err != nil {
				log.Debug().Err(err).Msg("brief failed")
				return err
			}

			out := cmd.OutOrStdout()
			if f.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			render(out, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.lang, "lang", "en", "Narrative language (en, zh, ja, ko)")
	cmd.Flags().StringVar(&f.chain, "chain", "", "Chain override (ethereum, base, bsc)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the brief as JSON")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 45*time.Second, "Overall deadline")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log degraded sources")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w (see --help)", err)
	})
	return cmd
}
