package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "recommender",
	Short: "High-severity fault-injection recommender",
	Long: `recommender runs a budget-limited closed-loop search against a remote
fault-execution service: it proposes candidate fault plans, applies them,
scores the target system's response, and converges toward the most
damaging plan for a given service.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionCmd)
}

// Commands are defined in separate files:
// - serveCmd in serve.go
// - sessionCmd in session.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
