package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "trustcore-node",
		Short: "Trust core node",
		Long:  "Cryptographic trust core for a distributed-ledger node",
	}

	rootCmd.AddCommand(NewStartCmd())
	rootCmd.AddCommand(NewVaultCmd())
	rootCmd.AddCommand(NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
