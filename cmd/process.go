// =============================================================================
// Vision Connector - Process Command
// =============================================================================
//
// This file defines the 'process' command, which imports expense export
// files into Vision once and exits.
//
// COMMAND USAGE:
//   visionctl process [flags]
//
// FLAGS:
//   --file     : Process only this file instead of scanning the input directory
//   --dry-run  : Parse, transform and validate without calling Vision
//
// PROCESSING PIPELINE:
//   1. Load configuration and build the Vision client
//   2. Discover export files in the input directory
//   3. For each file, in order:
//      a. Parse the delimited file or workbook
//      b. Apply transformation rules
//      c. Validate the records
//      d. Build the expense batch and keep a copy in the output directory
//      e. Add the batch to Vision and post it when auto_post is set
//      f. Archive the input file, or write an error log
//   4. Write the summary log and print the summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/beevik/etree"
	"github.com/juju/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/config"
	"github.com/ginjaninja78/vision-connector/internal/converter"
	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/validation"
	"github.com/ginjaninja78/vision-connector/internal/vision"
	"github.com/ginjaninja78/vision-connector/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun validates files without calling Vision.
var dryRun bool

// filePath restricts processing to one file.
var filePath string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Import expense export files into Vision",
	Long: `The process command scans the input directory for expense export files,
turns each one into an expense batch and adds it to Vision.

Files are processed one at a time. An error in one file does not stop the
others.

On success:
  - A copy of the batch is placed in the output directory
  - The batch is posted when auto_post is set
  - The input file is moved to the input archive

On error:
  - An error log is written to the error directory
  - The input file stays in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Parse and validate without calling Vision",
	)
	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Process only this file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context) error {
	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig()
	if err != nil {
		return errors.Trace(err)
	}
	conv, err := newConverter(cfg, dryRun)
	if err != nil {
		return errors.Trace(err)
	}

	// =========================================================================
	// STEP 2: DRY RUN
	// =========================================================================

	if dryRun {
		files := []string{filePath}
		if filePath == "" {
			files, err = fileManager(cfg.Ingest).DiscoverInputFiles(cfg.Ingest.FilePattern, cfg.Ingest.XLSXPattern)
			if err != nil {
				return errors.Trace(err)
			}
		}
		return dryRunFiles(conv, files)
	}

	// =========================================================================
	// STEP 3: PROCESS
	// =========================================================================

	if filePath != "" {
		result := conv.ProcessFile(ctx, filePath)
		printResult(result)
		if !result.Success {
			return errors.Errorf("%s was not imported", filepath.Base(filePath))
		}
		return nil
	}

	pterm.Info.Printfln("Scanning %s", cfg.Ingest.InputDir)
	summary, err := conv.Run(ctx)
	printSummary(summary)
	return errors.Trace(err)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// fileManager returns the FileManager for the ingest directories.
func fileManager(in config.IngestConfig) *utils.FileManager {
	return utils.NewFileManager(in.InputDir, in.InputArchiveDir, in.ErrorDir, in.OutputDir, nil)
}

// newConverter builds a Converter. When offline is set no Vision client is
// created and the converter may only be used for dry runs.
func newConverter(cfg *config.Config, offline bool) (*converter.Converter, error) {
	var client converter.TransactionClient = offlineClient{}
	if !offline {
		c, err := newClient(cfg)
		if err != nil {
			return nil, errors.Trace(err)
		}
		client = c
	}
	conv, err := converter.New(converter.Config{
		Client:    client,
		Files:     fileManager(cfg.Ingest),
		Ingest:    cfg.Ingest,
		Namespace: cfg.Fetch.PayloadNamespace,
	})
	return conv, errors.Trace(err)
}

// offlineClient stands in for Vision during a dry run.
type offlineClient struct{}

func (offlineClient) AddTransaction(context.Context, vision.TransactionKind, *etree.Element) (*message.Message, error) {
	return nil, errors.NotSupportedf("adding transactions during a dry run")
}

func (offlineClient) PostTransaction(context.Context, vision.TransactionKind, string, int) (*message.Message, error) {
	return nil, errors.NotSupportedf("posting transactions during a dry run")
}

// dryRunFiles validates files and prints what would be imported.
func dryRunFiles(conv *converter.Converter, files []string) error {
	if len(files) == 0 {
		pterm.Info.Println("No export files found in the input directory.")
		return nil
	}
	invalid := 0
	for _, file := range files {
		records, vr, err := conv.Records(file)
		if err != nil {
			invalid++
			pterm.Error.Printfln("%s: %v", filepath.Base(file), err)
			continue
		}
		if !vr.IsValid {
			invalid++
			pterm.Error.Printfln("%s: %d records, %d errors", filepath.Base(file), len(records), vr.ErrorCount)
			pterm.Println(validation.FormatErrors(vr.Errors))
			continue
		}
		pterm.Success.Printfln("%s: %d records, %d warnings", filepath.Base(file), len(records), vr.WarningCount)
	}
	if invalid > 0 {
		return errors.Errorf("%d of %d files would be rejected", invalid, len(files))
	}
	return nil
}

func printResult(r converter.Result) {
	name := filepath.Base(r.FilePath)
	switch {
	case !r.Success:
		pterm.Error.Printfln("%s: %s %v", name, r.ErrorType, r.Error)
		if r.ErrorLog != "" {
			pterm.Println("  error log: " + r.ErrorLog)
		}
	case r.BatchID == "":
		pterm.Info.Printfln("%s: %s", name, converter.NoDataDescription)
	default:
		state := "added"
		if r.Posted {
			state = "posted"
		}
		pterm.Success.Printfln("%s: batch %s %s, %d records, total %s",
			name, r.BatchID, state, r.Stats.Records, r.Stats.Total.StringFixed(2))
	}
}

// printSummary renders the summary of one pass as a table.
func printSummary(s utils.ProcessingSummary) {
	if s.TotalFiles == 0 {
		pterm.Info.Println("No export files found in the input directory.")
		return
	}
	data := pterm.TableData{{"File", "Batch", "Records", "Total", "Status"}}
	for _, f := range s.ProcessedFiles {
		status := "added"
		if f.Posted {
			status = "posted"
		}
		if f.BatchID == "" {
			status = "no data"
		}
		data = append(data, []string{filepath.Base(f.InputFile), f.BatchID, fmt.Sprint(f.Records), f.Total, status})
	}
	for _, f := range s.FailedFilesList {
		data = append(data, []string{filepath.Base(f.InputFile), "", "", "", pterm.Red(f.ErrorType)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		logger.Warningf("rendering summary: %v", err)
	}
	pterm.Printfln("%d files, %d imported, %d failed in %s",
		s.TotalFiles, s.SuccessfulFiles, s.FailedFiles, s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
	for _, f := range s.FailedFilesList {
		pterm.Error.Printfln("%s: %s", filepath.Base(f.InputFile), f.ErrorMessage)
	}
}
