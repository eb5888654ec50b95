package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fw version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fw %s\n", version.Current())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
