package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"optijpeg/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries([]deps.Requirement{
				deps.JpegtranRequirement(cfg.Jpegtran.Binary),
			})

			if ctx.JSONMode() {
				entries := make([]map[string]any, 0, len(statuses))
				for _, status := range statuses {
					entry := map[string]any{
						"name":      status.Name,
						"command":   status.Command,
						"available": status.Available,
						"optional":  status.Optional,
					}
					if status.Detail != "" {
						entry["detail"] = status.Detail
					}
					entries = append(entries, entry)
				}
				if err := writeJSON(cmd, map[string]any{"dependencies": entries}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, status := range statuses {
					kind := statusOK
					message := fmt.Sprintf("%s: ready (command: %s)", status.Name, status.Command)
					switch {
					case status.Available:
					case status.Optional:
						kind = statusWarn
						message = fmt.Sprintf("%s: %s", status.Name, status.Detail)
					default:
						kind = statusError
						message = fmt.Sprintf("%s: %s", status.Name, status.Detail)
					}
					fmt.Fprintln(out, renderStatusLine("DEPENDENCY", kind, message, colorize))
				}
			}

			var missing []string
			for _, status := range statuses {
				if !status.Available && !status.Optional {
					missing = append(missing, status.Name)
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}
