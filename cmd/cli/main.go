package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fystack/trustcore/cmd/cli/admin"
	"github.com/fystack/trustcore/cmd/cli/keys"
	"github.com/fystack/trustcore/cmd/cli/register"
)

func main() {
	ctx := context.Background()

	var rootCmd = &cobra.Command{
		Use:   "trustcore-cli",
		Short: "Trust core CLI",
		Long:  "Operator tooling for the trust core: admin keys, node registration, key checks",
	}

	rootCmd.AddCommand(admin.NewAdminCmd(ctx))
	rootCmd.AddCommand(register.NewRegisterCmd(ctx))
	rootCmd.AddCommand(keys.NewKeysCmd(ctx))

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
