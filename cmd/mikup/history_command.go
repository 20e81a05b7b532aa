package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mikup/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			entries := history.Load(cfg.HistoryPath())
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				complete := "no"
				if entry.Payload != nil && entry.Payload.IsComplete {
					complete = "yes"
				}
				rows = append(rows, []string{
					formatDate(entry.Date),
					entry.Filename,
					fmt.Sprintf("%.1fs", entry.Duration),
					complete,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Date", "File", "Duration", "Complete"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				stdoutIsTTY(os.Stdout.Fd()),
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	return cmd
}

func formatDate(value string) string {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.Local().Format("2006-01-02 15:04")
	}
	return value
}
