package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"caldera/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "caldera",
	Short: "Heap verification tooling for the caldera collector",
	Long:  `caldera inspects region-based heap snapshots and checks them against the collector's consistency invariants`,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "", "colorize output (auto|on|off)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// applyColorMode resolves the --color flag against the config default
// and configures the global color state.
func applyColorMode(flagValue, cfgValue string) {
	mode := flagValue
	if mode == "" {
		mode = cfgValue
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default: // auto
		color.NoColor = !isTerminal(os.Stdout)
	}
}
