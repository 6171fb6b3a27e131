package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fearless-dhbw/img-classification/internal/app"
	"github.com/fearless-dhbw/img-classification/internal/config"
	"github.com/fearless-dhbw/img-classification/internal/logger"
)

var (
	// cfg and log are shared by subcommands and set in PersistentPreRunE.
	cfg     *config.Config
	log     *logger.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "facectl",
	Short:         "Face feature extraction and classification tools",
	Version:       app.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if !verbose {
			log = logger.NewNop()
			return nil
		}
		var err error
		log, err = logger.NewLogger(cfg.LogDirectory, "debug")
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to the console and LOG_DIR")
}
