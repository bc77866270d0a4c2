package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keystone/auth"
	"keystone/purge"
)

var (
	resetTarget   string
	resetEmail    string
	resetPassword string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Bulk-delete a collection (or all of them)",
	Long: `Delete every record of a collection in rate-limited chunks.

Targets: visits, estimates, projects, blogs, leads, all.
The job runs as the admin whose credentials are given.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetTarget, "target", purge.TargetAll, "Collection to reset")
	resetCmd.Flags().StringVar(&resetEmail, "email", "", "Admin email")
	resetCmd.Flags().StringVar(&resetPassword, "password", "", "Admin password (or set KEYSTONE_ADMIN_PASSWORD)")
	_ = resetCmd.MarkFlagRequired("email")
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	password := resetPassword
	if password == "" {
		password = os.Getenv("KEYSTONE_ADMIN_PASSWORD")
	}

	authSvc := auth.NewService(e.store, e.cfg.Auth.SessionTTL)
	login, err := authSvc.Login(ctx, resetEmail, password)
	if err != nil {
		return err
	}
	defer authSvc.Logout(ctx, login.Token)

	caller, err := authSvc.Resolve(ctx, login.Token)
	if err != nil {
		return err
	}

	p := purge.New(e.service, purge.Config{
		PageSize:   e.cfg.Reset.PageSize,
		ChunkSize:  e.cfg.Reset.ChunkSize,
		ChunkDelay: e.cfg.Reset.ChunkDelay,
		PageDelay:  e.cfg.Reset.PageDelay,
		MaxDeletes: e.cfg.Reset.MaxDeletes,
	})
	result, err := p.Run(ctx, caller, resetTarget)
	for _, c := range purge.Collections {
		if n, ok := result.Deleted[c]; ok {
			fmt.Printf("   %-12s %d deleted\n", c+":", n)
		}
	}
	if err != nil {
		return err
	}
	if result.CeilingReached {
		fmt.Printf("Stopped at the %d delete ceiling; run again to continue.\n", e.cfg.Reset.MaxDeletes)
	}
	return nil
}
