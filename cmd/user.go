package cmd

import (
	"fmt"

	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/auth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local accounts (sqlite backend)",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create a local account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		dbPath, _ := cmd.Flags().GetString("dbpath")
		b, err := openSQLite(dbPath)
		if err != nil {
			return err
		}
		defer b.Close()

		lock, err := utils.NewDBLock(b.DB.Path())
		if err != nil {
			return err
		}
		return lock.Do(func() error {
			res := auth.NewManager(b.Auth()).SignUp(cmd.Context(), auth.NewSession(), args[0], password)
			if res.Error != "" {
				return fmt.Errorf("create account: %s", res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s\n", args[0])
			return nil
		})
	},
}

var userResetCmd = &cobra.Command{
	Use:   "reset <email>",
	Short: "Issue a password reset link (written to the log)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		b, err := openSQLite(dbPath)
		if err != nil {
			return err
		}
		defer b.Close()

		siteURL := viper.GetString("server.site_url")
		if siteURL == "" {
			siteURL = "http://localhost" + viper.GetString("server.bind")
		}
		res := auth.NewManager(b.Auth()).ResetPassword(cmd.Context(), args[0], siteURL+"/password-reset")
		if res.Error != "" {
			return fmt.Errorf("reset password: %s", res.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userResetCmd)
	userCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: sqlite.path from config)")
	userAddCmd.Flags().StringP("password", "p", "", "Password for the new account")
	userAddCmd.MarkFlagRequired("password")
}
