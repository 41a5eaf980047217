package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
	"github.com/de-tools/compliance-signals/pkg/services/config"
	"github.com/de-tools/compliance-signals/pkg/services/pipeline"
)

// ReportHandler renders a run report.
type ReportHandler interface {
	Handle(report *domain.Report) error
}

type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// ConfigLoader returns the effective configuration for the invocation.
type ConfigLoader func() (*config.Config, error)

// RunnerFactory builds a runner and a cleanup for the given configuration.
type RunnerFactory func(ctx context.Context, cfg *config.Config) (Runner, func(), error)

type RunCmd struct {
	mode       string
	output     string
	maxRecords int
	strict     bool
	quiet      bool

	load      ConfigLoader
	factory   RunnerFactory
	reporters map[string]ReportHandler
	format    string
}

func NewRunCmd(load ConfigLoader, factory RunnerFactory, reporters map[string]ReportHandler) *cobra.Command {
	rc := &RunCmd{load: load, factory: factory, reporters: reporters}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the compliance export and write the signals file",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.mode, "mode", "", "Output mode: signals or enriched (overrides config)")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Path of the JSON file to write (overrides config)")
	cmd.Flags().IntVar(&rc.maxRecords, "max-records", 0, "Maximum records written; 0 keeps the configured cap")
	cmd.Flags().BoolVar(&rc.strict, "strict", false, "Exit with an error when the export cannot be fetched")
	cmd.Flags().BoolVarP(&rc.quiet, "quiet", "q", false, "Do not print the run report")
	cmd.Flags().StringVar(&rc.format, "format", "table", "Report format: table or text")

	return cmd
}

func (rc *RunCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	reporter, ok := rc.reporters[rc.format]
	if !ok && !rc.quiet {
		return fmt.Errorf("unsupported report format %q", rc.format)
	}

	cfg, err := rc.load()
	if err != nil {
		return err
	}
	if rc.mode != "" {
		cfg.Mode = domain.Mode(rc.mode)
	}
	if rc.output != "" {
		cfg.Output.Path = rc.output
	}
	if rc.maxRecords > 0 {
		cfg.Output.MaxRecords = rc.maxRecords
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = rc.strict
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner, cleanup, err := rc.factory(ctx, cfg)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("failed to set up pipeline: %w", err)
	}

	res, err := runner.Run(ctx)
	if res != nil && !rc.quiet {
		report := res.Report()
		if rerr := reporter.Handle(&report); rerr != nil {
			return fmt.Errorf("failed to print report: %w", rerr)
		}
	}
	return err
}
