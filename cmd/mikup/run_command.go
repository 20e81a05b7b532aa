package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mikup/internal/config"
	"mikup/internal/logging"
	"mikup/internal/pipeline"
	"mikup/internal/progress"
	"mikup/internal/services/director"
	"mikup/internal/services/dspproc"
	"mikup/internal/services/separator"
	"mikup/internal/services/tagger"
	"mikup/internal/services/transcriber"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		input     string
		output    string
		outputDir string
		stage     string
		fast      bool
		mock      bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the analysis pipeline",
		Long: "Runs the five pipeline stages over the input file, resuming from valid cached artifacts. " +
			"With --stage, runs exactly that stage and exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = cfg.OutputDir
			}
			runCfg := &pipeline.RunConfig{
				Input:         strings.TrimSpace(input),
				OutputDir:     outputDir,
				OutputPayload: strings.TrimSpace(output),
				Stage:         strings.TrimSpace(stage),
				Fast:          fast,
				Mock:          mock,
				Force:         force,
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			// stdout carries the progress stream; everything else goes
			// to stderr and the log file.
			emitter := progress.NewEmitter(os.Stdout)
			runner := pipeline.NewRunner(runCfg, cfg, collaborators(cfg, mock), logger, emitter)
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Media file to analyze")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Payload destination (default <output-dir>/"+config.DefaultPayloadName+")")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Artifact directory (default from configuration)")
	cmd.Flags().StringVar(&stage, "stage", "", "Run exactly one stage: "+strings.Join(pipeline.StageOrder, ", "))
	cmd.Flags().BoolVar(&fast, "fast", false, "Skip expensive refinement passes inside stages")
	cmd.Flags().BoolVar(&mock, "mock", false, "Substitute synthetic stems and transcripts for the external tools")
	cmd.Flags().BoolVar(&force, "force", false, "Re-run stages even when cached artifacts are valid")

	return cmd
}

func collaborators(cfg *config.Config, mock bool) pipeline.Collaborators {
	if mock {
		return pipeline.MockCollaborators()
	}
	return pipeline.Collaborators{
		Separator: separator.NewService(separator.Config{
			Binary: cfg.Tools.Separator,
			Models: cfg.Tools.SeparatorModels,
		}),
		Transcriber: transcriber.NewService(transcriber.Config{
			Binary:  cfg.Tools.WhisperX,
			HFToken: cfg.HFToken(),
		}),
		Analyzer: dspproc.NewService(dspproc.Config{Binary: cfg.Tools.FFmpeg}),
		Tagger:   tagger.NewService(tagger.Config{Binary: cfg.Tools.Tagger}),
		Director: director.NewClient(director.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		}),
	}
}
