package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/byronguina/tasktracker/internal/config"
	"github.com/byronguina/tasktracker/internal/logging"
	"github.com/byronguina/tasktracker/internal/repository"
)

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	flagJSON    bool
	flagConfig  string
	flagBackend string

	cfg   *config.Config
	log   *logrus.Entry
	repo  *repository.Repository
	close func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task, epic and subtask tracker",
		Long: `A tracker for tasks and epics made of subtasks.

Scheduled items never overlap in time, epic status and span follow their
subtasks, and every viewed item is remembered in a history.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&a.flagJSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&a.flagConfig, "config", "", "Config file (default: ~/.tasks/config.yaml merged with ./.tasks/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.flagBackend, "backend", "", "Storage backend: memory, file, kv, sqlite or postgres")

	rootCmd.AddCommand(newAddCmd(a))
	rootCmd.AddCommand(newShowCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newUpdateCmd(a))
	rootCmd.AddCommand(newRmCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newPrioritizedCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newKVServerCmd(a))
	rootCmd.AddCommand(newTUICmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// setup loads the configuration and logger, then opens the configured store
// and restores the repository from it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	store, closeStore, err := openStore(cmd.Context(), a.cfg, a.log)
	if err != nil {
		return err
	}
	a.close = closeStore

	a.repo = repository.New(nil, store, a.log)
	if err := a.repo.Restore(); err != nil {
		a.shutdown()
		return fmt.Errorf("failed to restore from %s storage: %w", a.cfg.Storage.Backend, err)
	}
	return nil
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.flagConfig)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.flagBackend != "" {
		cfg.Storage.Backend = a.flagBackend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Env, cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func (a *app) shutdown() error {
	if a.close == nil {
		return nil
	}
	err := a.close()
	a.close = nil
	return err
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
