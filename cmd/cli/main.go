package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/de-tools/compliance-signals/pkg/runtime/terminal"
	"github.com/de-tools/compliance-signals/pkg/runtime/terminal/commands"
	"github.com/de-tools/compliance-signals/pkg/services/config"
	"github.com/de-tools/compliance-signals/pkg/services/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := terminal.NewCLI(terminal.Options{
		Factory: buildRunner,
		Output:  os.Stdout,
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func buildRunner(ctx context.Context, cfg *config.Config) (commands.Runner, func(), error) {
	runner, cleanup, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	return runner, cleanup, nil
}
