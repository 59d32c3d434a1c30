package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkeye/HelpWave/internal/adapters/sessionstore"
)

func newForgetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Clear the stored room session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sessionstore.OpenSQLite(app.StatePath)
			if err != nil {
				return err
			}
			defer store.Close()
			store.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "stored session cleared")
			return nil
		},
	}
}
