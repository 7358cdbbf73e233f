package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "meshctl",
		Short: "Routing core inspector",
		Long: `meshctl is an offline inspector for the overlay routing core: it builds
and prints multipath trees, answers routing table queries against a
plain-text edge list, and dumps recorded outbound messages. It never
opens a network connection; the overlay it inspects is always the one
given to it on the command line or in a file.`,
	}

	rootCmd.AddCommand(newMultipathCommand())
	rootCmd.AddCommand(newRouteCommand())
	rootCmd.AddCommand(newReplayCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
