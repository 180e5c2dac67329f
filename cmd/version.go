// =============================================================================
// Vision Connector - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   visionctl version
//
// OUTPUT:
//   Vision Connector
//   Version:    1.0.0
//   Build Date: 2024-01-01
//   Go Version: go1.24.0
//
// =============================================================================

package cmd

import (
	"runtime"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags:
//   go build -ldflags "-X 'github.com/ginjaninja78/vision-connector/cmd.Version=1.0.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Run: func(cmd *cobra.Command, args []string) {
		pterm.Println(pterm.Bold.Sprint("Vision Connector"))
		pterm.Printfln("Version:    %s", Version)
		pterm.Printfln("Build Date: %s", BuildDate)
		pterm.Printfln("Go Version: %s", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
