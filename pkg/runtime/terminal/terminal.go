package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-signals/pkg/runtime/terminal/commands"
	"github.com/de-tools/compliance-signals/pkg/runtime/terminal/export"
	"github.com/de-tools/compliance-signals/pkg/services/config"
)

// CLI represents the command-line interface
type CLI struct {
	factory    commands.RunnerFactory
	output     io.Writer
	logOutput  io.Writer
	configPath string
	logLevel   string
	pretty     bool
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Factory   commands.RunnerFactory
	Output    io.Writer
	LogOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	cli := &CLI{
		factory:   opts.Factory,
		output:    opts.Output,
		logOutput: opts.LogOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) loadConfig() (*config.Config, error) {
	return config.Load(cli.configPath)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "signals",
		Short:         "NDIS compliance actions to risk-tagged JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := zerolog.ParseLevel(cli.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cli.logLevel, err)
			}
			out := cli.logOutput
			if cli.pretty {
				out = zerolog.ConsoleWriter{Out: cli.logOutput}
			}
			logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}
	cmd.SetOut(cli.output)

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&cli.pretty, "pretty", false, "Human-readable console logs")

	reporters := map[string]commands.ReportHandler{
		"table": export.NewReporter(cli.output),
		"text":  NewReporter(cli.output),
	}

	cmd.AddCommand(commands.NewRunCmd(cli.loadConfig, cli.factory, reporters))
	cmd.AddCommand(commands.NewClassifyCmd(cli.loadConfig))
	cmd.AddCommand(commands.NewNormalizeHeaderCmd())
	cmd.AddCommand(commands.NewConfigCmd(cli.loadConfig))

	return cmd
}
