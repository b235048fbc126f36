// Command hydroctl runs the controller firmware on a simulated board and
// reads the trace link of a real one.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hydroponics/host/config"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "hydroctl",
		Short:         "Hydroponics controller host tool",
		Long:          "Simulate the hydroponics controller or monitor the trace link of a running board.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (default: built-in)")
	rootCmd.AddCommand(simCmd, monitorCmd, versionCmd)
}

// loadConfig returns the file named by --config, or the built-in defaults
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return config.Load(data)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
