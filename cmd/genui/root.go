package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/genui"
	"github.com/hupe1980/genui/config"
	"github.com/hupe1980/genui/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "genui",
		Short:         "Generative UI demo server",
		Long:          "genui streams LLM-generated stock reports with embedded UI components to web clients.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(),
		newAgentsCmd(),
		newRunCmd(),
		newVersionCmd(),
	)

	return root
}

// loadApp resolves the configuration from cmd's flags and assembles the App.
func loadApp(cmd *cobra.Command) (*genui.App, *config.Config, logging.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}

	logger := cfg.Logger()

	app, err := genui.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	return app, cfg, logger, nil
}
