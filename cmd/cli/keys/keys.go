package keys

import (
	"context"

	"github.com/spf13/cobra"
)

// NewKeysCmd creates the key inspection command group
func NewKeysCmd(ctx context.Context) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "keys",
		Short: "Node key inspection commands",
		Long:  "Commands for inspecting the local key store and checking it against the registry",
	}

	cmd.AddCommand(NewShowCmd(ctx))
	cmd.AddCommand(NewCheckCmd(ctx))

	return cmd
}
