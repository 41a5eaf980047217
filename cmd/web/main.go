package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-signals/pkg/server"
	"github.com/de-tools/compliance-signals/pkg/services/config"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite/runs"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:          "web",
		Short:        "Serve the compliance signals file and run history",
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var history runs.Store
	if cfg.History.Path != "" {
		db, err := sqlite.NewDB(ctx, sqlite.Settings{DbPath: cfg.History.Path})
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer db.Close()

		history, err = runs.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
	} else {
		logger.Warn().Msg("history.path is not set, run endpoints are disabled")
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("output", cfg.Output.Path).Msgf("serving signals on %s", addr)

	web := server.NewWebAPI(server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			OutputPath: cfg.Output.Path,
			Runs:       history,
			Logger:     logger,
		},
	})
	return web.Start(ctx)
}
