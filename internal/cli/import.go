package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a Postman collection export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			ws, cleanup, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := ws.Import(cmd.Context(), string(data)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", args[0])
			return nil
		},
	}
}
