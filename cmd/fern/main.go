package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:           "fern",
		Short:         "Document generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file read before the environment")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
