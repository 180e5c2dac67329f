// =============================================================================
// Vision Connector - Main Entry Point
// =============================================================================
//
// visionctl talks to a Deltek Vision web service: it reads records and
// transactions, and imports expense export files as expense batches.
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Vision client layer and the expense import pipeline
//   - pkg/       : File handling shared by the import commands
//   - configs/   : Example configuration
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/vision-connector/cmd"
)

func main() {
	cmd.Execute()
}
