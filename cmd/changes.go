package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent hunt changes (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		limit, _ := cmd.Flags().GetInt("limit")
		b, err := openSQLite(dbPath)
		if err != nil {
			return err
		}
		defer b.Close()
		changes, err := b.DB.ListRecentChanges(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			ts := c.OccurredAt.Format("2006-01-02 15:04:05")
			detail := ""
			if c.Field != "" {
				detail = fmt.Sprintf("%s=%q", c.Field, c.Value)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-7s  %s  %s  %s\n", ts, c.ChangeType, c.CounterID, c.Name, detail)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: sqlite.path from config)")
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
