package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keystone/auth"
	"keystone/models"
)

var (
	adminEmail    string
	adminName     string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(adminPassword) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}
		ctx, cancel := commandContext()
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		user, err := auth.NewService(e.store, e.cfg.Auth.SessionTTL).
			CreateUser(ctx, adminEmail, adminName, adminPassword, models.RoleAdmin)
		if err != nil {
			return err
		}
		fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "Display name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
