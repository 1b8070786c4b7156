package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(withRuntime runtimeRunner) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				applied, err := rt.migrate(ctx)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "Applied migration %05d\n", v)
				}
				return nil
			})
		},
	}
	migrateCmd.AddCommand(upCmd)
	return migrateCmd
}
