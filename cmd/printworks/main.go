package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "printworks",
	Short: "Printworks — photo print order fulfillment worker",
	Long: "Printworks consumes print orders from a queue, packages the" +
		" photos, and hands them to the print lab.",
}

func init() {
	rootCmd.AddCommand(consumeCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(readmeCmd)
	rootCmd.AddCommand(failedCmd)
}
