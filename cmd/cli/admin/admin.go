package admin

import (
	"context"

	"github.com/spf13/cobra"
)

// NewAdminCmd creates the admin key management command group
func NewAdminCmd(ctx context.Context) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "admin",
		Short: "Administrative key management commands",
		Long:  "Commands for generating and managing administrative signing keys",
	}

	cmd.AddCommand(NewGenerateKeyCmd(ctx))

	return cmd
}
