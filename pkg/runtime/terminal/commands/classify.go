package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-signals/pkg/services/config"
	"github.com/de-tools/compliance-signals/pkg/services/signals"
)

type ClassifyCmd struct {
	load ConfigLoader
}

func NewClassifyCmd(load ConfigLoader) *cobra.Command {
	cc := &ClassifyCmd{load: load}
	return &cobra.Command{
		Use:   "classify <action type>...",
		Short: "Print the risk bucket assigned to each action type",
		Args:  cobra.MinimumNArgs(1),
		RunE:  cc.run,
	}
}

func (cc *ClassifyCmd) run(cmd *cobra.Command, args []string) error {
	cfg, err := cc.load()
	if err != nil {
		return err
	}

	classifier := signals.NewClassifier(cfg.Risk.Rules)
	for _, actionType := range args {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", classifier.Classify(actionType), actionType)
	}
	return nil
}

func NewNormalizeHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize-header <header>...",
		Short: "Print the normalized key for each CSV header",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, header := range args {
				fmt.Fprintln(cmd.OutOrStdout(), signals.NormalizeHeader(header))
			}
			return nil
		},
	}
}

func NewConfigCmd(load ConfigLoader) *cobra.Command {
	var profiles bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if profiles {
				return printProfiles(cmd, cfg)
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&profiles, "profiles", false, "List the profiles of the enrichment credentials file instead")
	return cmd
}

func printProfiles(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.Enrich.CredentialsFile == "" {
		return fmt.Errorf("enrich.credentials_file is not set")
	}
	registry, err := config.NewRegistry(cfg.Enrich.CredentialsFile)
	if err != nil {
		return fmt.Errorf("failed to load credentials file: %w", err)
	}
	profiles, err := registry.GetProfiles(cmd.Context())
	if err != nil {
		return err
	}
	for _, p := range profiles {
		marker := " "
		if p.Name == cfg.Enrich.Profile {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, p)
	}
	return nil
}
