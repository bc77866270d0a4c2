// Command keystonectl runs administrative jobs against the site's store.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"keystone/config"
	"keystone/database"
	"keystone/entities"
	"keystone/logging"
)

var (
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "keystonectl",
	Short:         "Administrative commands for the Keystone site",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, err := logging.New(level, "console")
		if err != nil {
			return err
		}
		logging.Install(logger)
		return nil
	},
}

// env is what every command works with.
type env struct {
	cfg     config.Config
	store   database.Store
	service *entities.ServiceClient
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := database.Open(ctx, cfg.Store.Driver, cfg.Store.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	cred, err := entities.CredentialFromKey(cfg.Store.ServiceRoleKey, cfg.DevMode())
	if err != nil {
		store.Close()
		return nil, err
	}
	service, err := entities.NewServiceClient(store, cred)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &env{cfg: cfg, store: store, service: service}, nil
}

func (e *env) Close() {
	e.store.Close()
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Operation timeout")

	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(importBlogCmd)
	rootCmd.AddCommand(reorderCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
