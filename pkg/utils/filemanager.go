// =============================================================================
// Vision Connector - File Manager Utility
// =============================================================================
//
// This module provides the file handling of the ingest job:
//   - File discovery in the input directory
//   - Archival of files Vision accepted
//   - Error logs for files Vision or validation rejected
//   - Processing summaries
//   - Output file naming
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after Vision accepted them
//   - Rejected files stay in the input directory and get an error log in
//     the error directory, so they are retried once fixed
//   - Old archives are removed after the configured retention
//
// All timestamps come from the configured clock.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
)

// timestampLayout is used in generated file names.
const timestampLayout = "20060102_150405"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the ingest job.
type FileManager struct {
	// InputDir is the directory where export files are placed.
	InputDir string

	// InputArchiveDir receives accepted input files.
	InputArchiveDir string

	// ErrorDir receives error logs.
	ErrorDir string

	// OutputDir receives payload copies and summaries.
	OutputDir string

	// UseDateSubdirs archives into year/month/day subdirectories.
	// Example: input_archive/2024/01/15/march.expense
	UseDateSubdirs bool

	clock clock.Clock
}

// NewFileManager creates a FileManager for the given directories. A nil
// clock means the wall clock.
func NewFileManager(inputDir, inputArchiveDir, errorDir, outputDir string, clk clock.Clock) *FileManager {
	if clk == nil {
		clk = clock.WallClock
	}
	return &FileManager{
		InputDir:        inputDir,
		InputArchiveDir: inputArchiveDir,
		ErrorDir:        errorDir,
		OutputDir:       outputDir,
		clock:           clk,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.InputArchiveDir, fm.ErrorDir, fm.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Annotatef(err, "creating directory %s", dir)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching any of
// the patterns.
//
// PARAMETERS:
//   - patterns: Glob patterns such as "*.expense". Empty patterns are
//     ignored.
//
// RETURNS:
//   - The matching files, sorted by name. A file matching several
//     patterns is listed once.
//   - An error if a pattern is malformed.
func (fm *FileManager) DiscoverInputFiles(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, errors.Annotatef(err, "scanning input directory for %q", pattern)
		}
		for _, file := range files {
			info, err := os.Stat(file)
			if err != nil || info.IsDir() || seen[file] {
				continue
			}
			seen[file] = true
			result = append(result, file)
		}
	}
	sort.Strings(result)
	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory. An
// existing archive of the same name is kept; the new file gets a timestamp
// suffix.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.archivePath(filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", errors.Annotate(err, "creating archive directory")
	}
	if FileExists(archivePath) {
		ext := filepath.Ext(archivePath)
		archivePath = fmt.Sprintf("%s_%s%s", strings.TrimSuffix(archivePath, ext), fm.clock.Now().Format(timestampLayout), ext)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", errors.Annotate(err, "copying file to archive")
		}
		if err := os.Remove(filePath); err != nil {
			return "", errors.Annotate(err, "removing archived file")
		}
	}
	return archivePath, nil
}

func (fm *FileManager) archivePath(filePath string) string {
	fileName := filepath.Base(filePath)
	if fm.UseDateSubdirs {
		now := fm.clock.Now()
		return filepath.Join(
			fm.InputArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}
	return filepath.Join(fm.InputArchiveDir, fileName)
}

// CleanOldArchives removes archived files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if the archive cannot be walked.
func (fm *FileManager) CleanOldArchives(maxAge time.Duration) (int, error) {
	if maxAge <= 0 || !FileExists(fm.InputArchiveDir) {
		return 0, nil
	}
	cutoff := fm.clock.Now().Add(-maxAge)
	removed := 0
	err := filepath.Walk(fm.InputArchiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	return removed, errors.Annotate(err, "cleaning archives")
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {time}      - Current time (HHMMSS)
//     plus any key of params, for example {batch} or {original}.
//   - params: A map of placeholder values.
//
// EXAMPLE:
//   format: "{original}_{batch}.xml"
//   params: {"original": "march", "batch": "EX_20240304101500"}
//   output: "march_EX_20240304101500.xml"
func (fm *FileManager) GenerateOutputFileName(format string, params map[string]string) string {
	now := fm.clock.Now()
	pairs := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format(timestampLayout),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", value)
	}
	result := strings.NewReplacer(pairs...).Replace(format)
	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}
	return result
}

// OutputPath returns the path of name in the output directory.
func (fm *FileManager) OutputPath(name string) string {
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
	FieldName    string
	FieldValue   string
}

// Error types used in error logs.
const (
	ErrorTypeParse      = "PARSE"
	ErrorTypeTransform  = "TRANSFORM"
	ErrorTypeValidation = "VALIDATION"
	ErrorTypeVision     = "VISION"
	ErrorTypeSystem     = "SYSTEM"
)

// WriteErrorLog writes the errors of one input file to the error directory.
//
// PARAMETERS:
//   - inputFile: The rejected input file; the log is named after it.
//   - entries: The error entries to write.
//
// RETURNS:
//   - The path to the error log file, empty when there are no entries.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(inputFile string, entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	now := fm.clock.Now()
	logPath := filepath.Join(fm.ErrorDir,
		fmt.Sprintf("%s_%s.errors.txt", filepath.Base(inputFile), now.Format(timestampLayout)))

	err := writeFile(logPath, func(w *bufio.Writer) {
		fmt.Fprintf(w, "Vision Connector - Error Log\n"+
			"File: %s\n"+
			"Generated: %s\n"+
			"Total Errors: %d\n"+
			"================================================================================\n\n",
			inputFile, now.Format("2006-01-02 15:04:05"), len(entries))

		for i, entry := range entries {
			fmt.Fprintf(w, "Error #%d\n"+
				"  Timestamp:      %s\n"+
				"  Error Type:     %s\n"+
				"  Message:        %s\n",
				i+1,
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.ErrorType,
				entry.ErrorMessage)
			if entry.RowNumber > 0 {
				fmt.Fprintf(w, "  Row Number:     %d\n", entry.RowNumber)
			}
			if entry.FieldName != "" {
				fmt.Fprintf(w, "  Field:          %s\n", entry.FieldName)
			}
			if entry.FieldValue != "" {
				fmt.Fprintf(w, "  Value:          %s\n", entry.FieldValue)
			}
			w.WriteString("\n")
		}
		w.WriteString("================================================================================\n" +
			"End of Error Log\n")
	})
	if err != nil {
		return "", errors.Annotate(err, "writing error log")
	}
	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime        time.Time
	EndTime          time.Time
	TotalFiles       int
	SuccessfulFiles  int
	FailedFiles      int
	TotalRecords     int
	TotalReports     int
	ValidationErrors int
	ProcessedFiles   []ProcessedFileInfo
	FailedFilesList  []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	ArchivePath string
	BatchID     string
	Records     int
	Reports     int
	Total       string
	Posted      bool
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
	ErrorLog     string
}

// WriteSummaryLog writes a processing summary to the output directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	summaryPath := filepath.Join(fm.OutputDir,
		fmt.Sprintf("processing_summary_%s.txt", fm.clock.Now().Format(timestampLayout)))

	err := writeFile(summaryPath, func(w *bufio.Writer) {
		fmt.Fprintf(w, "Vision Connector - Processing Summary\n"+
			"================================================================================\n\n"+
			"Run Information:\n"+
			"  Start Time:     %s\n"+
			"  End Time:       %s\n"+
			"  Duration:       %s\n\n"+
			"Statistics:\n"+
			"  Total Files:        %d\n"+
			"  Successful:         %d\n"+
			"  Failed:             %d\n"+
			"  Total Records:      %d\n"+
			"  Expense Reports:    %d\n"+
			"  Validation Errors:  %d\n\n",
			summary.StartTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Sub(summary.StartTime).String(),
			summary.TotalFiles,
			summary.SuccessfulFiles,
			summary.FailedFiles,
			summary.TotalRecords,
			summary.TotalReports,
			summary.ValidationErrors)

		if len(summary.ProcessedFiles) > 0 {
			w.WriteString("Successful Files:\n")
			w.WriteString("--------------------------------------------------------------------------------\n")
			for _, pf := range summary.ProcessedFiles {
				fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
				fmt.Fprintf(w, "  Batch:        %s\n", pf.BatchID)
				fmt.Fprintf(w, "  Output:       %s\n", pf.OutputFile)
				fmt.Fprintf(w, "  Records:      %d\n", pf.Records)
				fmt.Fprintf(w, "  Reports:      %d\n", pf.Reports)
				fmt.Fprintf(w, "  Total:        %s\n", pf.Total)
				fmt.Fprintf(w, "  Posted:       %t\n", pf.Posted)
				fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime.String())
			}
		}

		if len(summary.FailedFilesList) > 0 {
			w.WriteString("Failed Files:\n")
			w.WriteString("--------------------------------------------------------------------------------\n")
			for _, ff := range summary.FailedFilesList {
				fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
				fmt.Fprintf(w, "  Type:  %s\n", ff.ErrorType)
				fmt.Fprintf(w, "  Error: %s\n", ff.ErrorMessage)
				if ff.ErrorLog != "" {
					fmt.Fprintf(w, "  Log:   %s\n", ff.ErrorLog)
				}
				w.WriteString("\n")
			}
		}

		w.WriteString("================================================================================\n" +
			"End of Summary\n")
	})
	if err != nil {
		return "", errors.Annotate(err, "writing summary")
	}
	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// writeFile creates path and writes it through a buffered writer.
func writeFile(path string, write func(w *bufio.Writer)) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	write(w)
	return errors.Trace(w.Flush())
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
