package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mikup/internal/artifacts"
	"mikup/internal/pipeline"
	"mikup/internal/runstate"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-stage completion for an output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.OutputDir
			}

			statePath := filepath.Join(outputDir, "data", artifacts.StateFile)
			state := runstate.Load(statePath)

			out := cmd.OutOrStdout()
			if state.SourceFile == "" {
				fmt.Fprintf(out, "No runs recorded under %s\n", outputDir)
				return nil
			}

			fmt.Fprintf(out, "Source: %s\n", state.SourceFile)
			if state.UpdatedAt != "" {
				fmt.Fprintf(out, "Last update: %s\n", state.UpdatedAt)
			}

			rows := make([][]string, 0, len(pipeline.StageOrder))
			for _, stage := range pipeline.StageOrder {
				record, ok := state.Stages[stage]
				timestamp := "-"
				if ok && record.Timestamp != "" {
					timestamp = record.Timestamp
				}
				rows = append(rows, []string{
					pipeline.DisplayName(stage),
					yesNo(ok && record.Completed),
					timestamp,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Completed", "Timestamp"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
				stdoutIsTTY(os.Stdout.Fd()),
			))

			fmt.Fprintf(out, "%d/%d stages complete\n", completedPrefix(state), len(pipeline.StageOrder))
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Artifact directory (default from configuration)")
	return cmd
}

// completedPrefix counts completed stages from the front of the order,
// stopping at the first gap: later completions are unreachable progress
// until the gap is filled.
func completedPrefix(state *runstate.State) int {
	count := 0
	for _, stage := range pipeline.StageOrder {
		if !state.Completed(stage) {
			break
		}
		count++
	}
	return count
}
