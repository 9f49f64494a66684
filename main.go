package main

import (
	"fmt"
	"os"

	"arkive/config"
	"arkive/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "arkive",
	Short:         "Submit URLs to the Wayback Machine, once",
	Long:          `arkive records every URL it is asked to archive and submits each one to the Internet Archive only until an archived copy exists.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := config.New()
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		log, err := logger.New(logger.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			File:   cfg.LogFile,
		})
		if err != nil {
			return err
		}
		logger.SetBase(log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Base().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (yaml, json, toml or env)")
	rootCmd.PersistentFlags().String("db_path", "", "Path to the SQLite database (env ARKIVE_DB_PATH)")
	rootCmd.PersistentFlags().String("log_level", "", "Log level: debug, info, warn, error (env ARKIVE_LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd, hideCmd, unhideCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Base().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
