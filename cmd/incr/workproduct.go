package main

import (
	"github.com/spf13/cobra"

	"incr/internal/depnode"
)

var workproductCmd = &cobra.Command{
	Use:   "workproduct <unit-name>",
	Short: "Print the work-product id derived from a unit name",
	Long: `Derives the session-independent work-product id for a codegen-unit
name. The same name always maps to the same id, in any session on any
machine, which is what lets saved artifacts be found again across runs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(depnode.WorkProductFromUnitName(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(workproductCmd)
}
