package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ruleslang/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ruleslang " + version.Version)
		if version.GitCommit != "" {
			fmt.Println("commit: " + version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Println("built: " + version.BuildDate)
		}
	},
}
