// Package cli wires up the centlink command-line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/centlink/centlink/internal/cli.version=1.2.3"
	version = "1.0.0"
	logo    = "\n" +
		"   ___ ___ _  _ _____ _    ___ _  _ _  __\n" +
		"  / __| __| \\| |_   _| |  |_ _| \\| | |/ /\n" +
		" | (__| _|| .` | | | | |__ | || .` | ' <\n" +
		"  \\___|___|_|\\_| |_| |____|___|_|\\_|_|\\_\\\n"
)

var rootCmd = &cobra.Command{
	Use:   "centlink",
	Short: "centlink - SS14 account link bot",
	Long:  color.CyanString(logo) + "\nLinks SS14 accounts to Discord profiles and mirrors donor role levels.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the centlink version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("centlink", version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(usersCmd)
}
