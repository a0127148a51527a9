package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"icandy/internal/capability"
	"icandy/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report configuration and capability readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			lines = append(lines, renderStatusLine("Base URL", statusInfo, cfg.Unsplash.BaseURL, colorize))
			lines = append(lines, renderStatusLine("Hourly limit", statusInfo, fmt.Sprintf("%d requests", cfg.Unsplash.HourlyLimit), colorize))
			lines = append(lines, renderStatusLine("Images per key", statusInfo, fmt.Sprintf("%d", cfg.Build.AssetsPerKey), colorize))
			lines = append(lines, renderStatusLine("Validate images", statusInfo, yesNo(cfg.Build.ValidateImages), colorize))

			results := preflight.RunAll(cfg)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Readiness", colorize)...)
			lines = append(lines, checkLines(results, colorize)...)

			beat := capability.Probe(nil)
			beatResult := preflight.CheckBeat(beat)
			kind := statusOK
			if !beat.Available() {
				kind = statusWarn
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Capabilities", colorize)...)
			lines = append(lines, renderStatusLine(beatResult.Name, kind, beatResult.Detail, colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d readiness checks failed", len(failed))
			}
			return nil
		},
	}
}
