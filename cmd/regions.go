package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agromaps/cropmask-cli/internal/region"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the recognized region names",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range region.ParentRegions {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
