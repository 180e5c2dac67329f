// =============================================================================
// Vision Connector - Expense Ingest Pipeline
// =============================================================================
//
// This module contains the ingest job. It takes the export files dropped into
// the input directory and turns each of them into one employee expense batch
// in Vision.
//
// PROCESSING PIPELINE (per file):
//   1. Parse the delimited or XLSX file into expense records
//   2. Apply the company override and the transformation rules
//   3. Validate the records
//   4. Build the exControl/exMaster/exDetail payload
//   5. Write a copy of the payload to the output directory
//   6. Add the batch with AddTransaction
//   7. Post the batch when auto posting is enabled
//   8. Archive the input file
//
// A file that fails before step 6 is left in place with an error log in the
// error directory, so it is picked up again once fixed. A file whose batch
// was added is always archived, even when posting fails, so that the batch
// is not added twice.
//
// Files are processed one at a time, in name order.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/vision-connector/internal/config"
	"github.com/ginjaninja78/vision-connector/internal/csvparser"
	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/logging"
	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/types"
	"github.com/ginjaninja78/vision-connector/internal/validation"
	"github.com/ginjaninja78/vision-connector/internal/vision"
	"github.com/ginjaninja78/vision-connector/internal/xlsxparser"
	"github.com/ginjaninja78/vision-connector/internal/xmlwriter"
	"github.com/ginjaninja78/vision-connector/pkg/utils"
)

// NoDataDescription is the description of the message returned for a file
// without expense lines.
const NoDataDescription = "No Data To Process"

// outputNameFormat names the payload copy in the output directory.
const outputNameFormat = "{original}_{batch}.xml"

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// BatchID is the expense batch built for the file, empty when the file
	// failed before a batch was built.
	BatchID string

	// OutputFile is the payload copy written to the output directory.
	OutputFile string

	// ArchivePath is where the input file was moved to.
	ArchivePath string

	// ErrorLog is the error log written for a failed file.
	ErrorLog string

	// Message is the last Vision response: the post when auto posting,
	// otherwise the add.
	Message *message.Message

	// Posted is set when the batch was posted.
	Posted bool

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed, and ErrorType one of
	// the utils.ErrorType constants.
	Error     error
	ErrorType string

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Records is the number of expense lines read.
	Records int

	// Reports is the number of expense reports, one per employee.
	Reports int

	Total decimal.Decimal

	ValidationErrors   int
	ValidationWarnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// TransactionClient is the part of the Vision client the pipeline uses.
type TransactionClient interface {
	AddTransaction(ctx context.Context, kind vision.TransactionKind, data *etree.Element) (*message.Message, error)
	PostTransaction(ctx context.Context, kind vision.TransactionKind, batchList string, period int) (*message.Message, error)
}

// Config holds the dependencies of a Converter.
type Config struct {
	Client TransactionClient
	Files  *utils.FileManager
	Ingest config.IngestConfig

	// Namespace is applied to the payload. Default:
	// envelope.DefaultNamespace.
	Namespace string

	// Clock stamps batch ids. Default: the wall clock.
	Clock clock.Clock

	// Logger defaults to the "vision.converter" logger.
	Logger logging.Logger

	// NewPKey generates detail row keys. Default: NewPKey.
	NewPKey func() string
}

// Validate checks the configuration.
func (cfg Config) Validate() error {
	if cfg.Client == nil {
		return errors.NotValidf("nil Client")
	}
	if cfg.Files == nil {
		return errors.NotValidf("nil Files")
	}
	return nil
}

// Converter runs the ingest pipeline.
type Converter struct {
	cfg         Config
	transformer *Transformer
	validator   *validation.Validator
	logger      logging.Logger

	lastStamp string
	batchSeq  int
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter.
func New(cfg Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = envelope.DefaultNamespace
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = loggo.GetLogger("vision.converter")
	}
	return &Converter{
		cfg:         cfg,
		transformer: NewTransformer(cfg.Ingest.TransformationRules),
		validator: validation.NewValidator(validation.ValidationOptions{
			TreatWarningsAsErrors: cfg.Ingest.TreatWarningsAsErrors,
		}),
		logger: cfg.Logger,
	}, nil
}

// =============================================================================
// RUN
// =============================================================================

// Run processes every file in the input directory once.
//
// RETURNS:
//   - A summary of the pass. A summary log is written when any file was
//     found.
//   - An error if the input directory cannot be scanned or ctx was
//     cancelled during the pass.
func (c *Converter) Run(ctx context.Context) (utils.ProcessingSummary, error) {
	summary := utils.ProcessingSummary{StartTime: c.cfg.Clock.Now()}
	files, err := c.cfg.Files.DiscoverInputFiles(c.cfg.Ingest.FilePattern, c.cfg.Ingest.XLSXPattern)
	if err != nil {
		return summary, errors.Trace(err)
	}
	if len(files) == 0 {
		c.logger.Debugf("no input files in %s", c.cfg.Files.InputDir)
	}

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		result := c.ProcessFile(ctx, file)
		summary.TotalFiles++
		summary.TotalRecords += result.Stats.Records
		summary.TotalReports += result.Stats.Reports
		summary.ValidationErrors += result.Stats.ValidationErrors
		if result.Success {
			summary.SuccessfulFiles++
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				ArchivePath: result.ArchivePath,
				BatchID:     result.BatchID,
				Records:     result.Stats.Records,
				Reports:     result.Stats.Reports,
				Total:       result.Stats.Total.StringFixed(2),
				Posted:      result.Posted,
				ProcessTime: result.Stats.ProcessingTime,
			})
			continue
		}
		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
			ErrorType:    result.ErrorType,
			ErrorLog:     result.ErrorLog,
		})
	}
	summary.EndTime = c.cfg.Clock.Now()

	if summary.TotalFiles > 0 {
		path, err := c.cfg.Files.WriteSummaryLog(summary)
		if err != nil {
			c.logger.Errorf("%v", err)
		} else {
			c.logger.Infof("processed %d files (%d failed), summary in %s", summary.TotalFiles, summary.FailedFiles, path)
		}
	}
	if removed, err := c.cfg.Files.CleanOldArchives(c.cfg.Ingest.ArchiveRetention); err != nil {
		c.logger.Warningf("%v", err)
	} else if removed > 0 {
		c.logger.Infof("removed %d archived files", removed)
	}
	return summary, errors.Trace(ctx.Err())
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// ProcessFile runs the pipeline for one file.
func (c *Converter) ProcessFile(ctx context.Context, path string) (result Result) {
	start := c.cfg.Clock.Now()
	result.FilePath = path
	defer func() {
		result.Stats.ProcessingTime = c.cfg.Clock.Now().Sub(start)
	}()

	// =========================================================================
	// STEP 1: PARSE INPUT FILE
	// =========================================================================

	c.logger.Infof("processing file: %s", path)

	parsed, err := c.parse(path)
	if err != nil {
		c.fail(&result, utils.ErrorTypeParse, err, nil)
		return result
	}
	if parsed.HasErrors() {
		c.fail(&result, utils.ErrorTypeParse,
			errors.Errorf("%d rows could not be read", len(parsed.Errors)),
			rowErrorEntries(utils.ErrorTypeParse, parsed.Errors, start))
		return result
	}
	records := parsed.Records
	result.Stats.Records = len(records)
	c.logger.Debugf("read %d expense lines", len(records))

	// =========================================================================
	// STEP 2: APPLY TRANSFORMATIONS
	// =========================================================================

	if rowErrs := c.prepare(records); len(rowErrs) > 0 {
		c.fail(&result, utils.ErrorTypeTransform,
			errors.Errorf("%d rows could not be transformed", len(rowErrs)),
			rowErrorEntries(utils.ErrorTypeTransform, rowErrs, start))
		return result
	}

	// =========================================================================
	// STEP 3: VALIDATE
	// =========================================================================

	validated := c.validator.ValidateAll(records)
	result.Stats.ValidationErrors = validated.ErrorCount
	result.Stats.ValidationWarnings = validated.WarningCount
	for _, e := range validated.Errors {
		if e.Severity == validation.SeverityWarning {
			c.logger.Warningf("%s: %v", filepath.Base(path), e)
		}
	}
	if !validated.IsValid {
		c.fail(&result, utils.ErrorTypeValidation,
			errors.Errorf("%d validation errors", validated.ErrorCount),
			validationEntries(validated.Errors, start))
		return result
	}

	// =========================================================================
	// STEP 4: BUILD PAYLOAD
	// =========================================================================

	payload, err := BuildPayload(records, c.nextBatchID(), c.cfg.NewPKey)
	if err != nil {
		c.fail(&result, utils.ErrorTypeSystem, err, nil)
		return result
	}
	if payload == nil {
		c.logger.Infof("%s: no expense lines", filepath.Base(path))
		result.Message = message.New(message.CodeNoData, NoDataDescription, "")
		c.archive(&result)
		return result
	}
	envelope.ApplyNamespace(payload.Recs, c.cfg.Namespace)
	result.BatchID = payload.BatchID
	result.Stats.Reports = payload.Reports
	result.Stats.Total = payload.Total

	// =========================================================================
	// STEP 5: WRITE PAYLOAD COPY
	// =========================================================================

	original := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outputPath := c.cfg.Files.OutputPath(c.cfg.Files.GenerateOutputFileName(outputNameFormat, map[string]string{
		"original": original,
		"batch":    payload.BatchID,
	}))
	if err := xmlwriter.WriteFile(outputPath, payload.Recs, xmlwriter.DefaultGenerateOptions()); err != nil {
		c.fail(&result, utils.ErrorTypeSystem, err, nil)
		return result
	}
	result.OutputFile = outputPath

	// =========================================================================
	// STEP 6: ADD TRANSACTION
	// =========================================================================

	c.logger.Infof("adding batch %s: %d reports, %d lines, total %s",
		payload.BatchID, payload.Reports, payload.Lines, payload.Total.StringFixed(2))

	added, err := c.cfg.Client.AddTransaction(ctx, vision.EmpExpense, payload.Recs)
	if err != nil {
		c.fail(&result, utils.ErrorTypeSystem, errors.Annotate(err, "adding expense batch"), nil)
		return result
	}
	result.Message = added
	if !added.Success() {
		c.fail(&result, utils.ErrorTypeVision,
			errors.Errorf("AddTransaction returned %s: %s", added.ReturnCode, added.ReturnDesc),
			messageEntries(added, start))
		return result
	}

	// =========================================================================
	// STEP 7: POST BATCH
	// =========================================================================

	var postErr error
	if c.cfg.Ingest.AutoPost {
		posted, err := c.cfg.Client.PostTransaction(ctx, vision.EmpExpense, payload.BatchID, payload.Period)
		switch {
		case err != nil:
			postErr = errors.Annotatef(err, "posting batch %s", payload.BatchID)
		case !posted.Success():
			result.Message = posted
			postErr = errors.Errorf("PostTransaction returned %s: %s", posted.ReturnCode, posted.ReturnDesc)
		default:
			result.Message = posted
			result.Posted = true
			c.logger.Infof("posted batch %s for period %d", payload.BatchID, payload.Period)
		}
	}

	// =========================================================================
	// STEP 8: ARCHIVE
	// =========================================================================

	c.archive(&result)
	if postErr != nil && result.Error == nil {
		var entries []utils.ErrorLogEntry
		if result.Message != nil && result.Message != added {
			entries = messageEntries(result.Message, start)
		}
		c.fail(&result, utils.ErrorTypeVision, postErr, entries)
	}
	return result
}

// parse reads path with the parser matching its name.
func (c *Converter) parse(path string) (*csvparser.Result, error) {
	if c.isWorkbook(path) {
		return xlsxparser.Parse(path)
	}
	return csvparser.Parse(path, c.cfg.Ingest.CSVSettings)
}

func (c *Converter) isWorkbook(path string) bool {
	if pattern := c.cfg.Ingest.XLSXPattern; pattern != "" {
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// nextBatchID returns a batch id for the current time. Batches built within
// the same second get a "_2", "_3", ... suffix.
func (c *Converter) nextBatchID() string {
	id := BatchID(c.cfg.Clock.Now())
	if id != c.lastStamp {
		c.lastStamp = id
		c.batchSeq = 1
		return id
	}
	c.batchSeq++
	return fmt.Sprintf("%s_%d", id, c.batchSeq)
}

// prepare applies the company override and the transformation rules.
func (c *Converter) prepare(records []types.ExpenseRecord) []csvparser.RowError {
	if company := c.cfg.Ingest.Company; company != "" {
		for i := range records {
			records[i].Company = company
		}
	}
	return c.transformer.TransformRecords(records)
}

func (c *Converter) archive(result *Result) {
	archived, err := c.cfg.Files.ArchiveInputFile(result.FilePath)
	if err != nil {
		c.fail(result, utils.ErrorTypeSystem, err, nil)
		return
	}
	result.ArchivePath = archived
	result.Success = true
	c.logger.Infof("archived %s", archived)
}

// fail records err on result and writes the error log. Without entries
// the log holds err itself.
func (c *Converter) fail(result *Result, errorType string, err error, entries []utils.ErrorLogEntry) {
	result.Success = false
	result.Error = err
	result.ErrorType = errorType
	c.logger.Errorf("%s: %v", result.FilePath, err)

	if len(entries) == 0 {
		entries = []utils.ErrorLogEntry{{
			Timestamp:    c.cfg.Clock.Now(),
			ErrorType:    errorType,
			ErrorMessage: err.Error(),
		}}
	}
	for i := range entries {
		entries[i].FileName = result.FilePath
	}
	logPath, logErr := c.cfg.Files.WriteErrorLog(result.FilePath, entries)
	if logErr != nil {
		c.logger.Errorf("%v", logErr)
		return
	}
	result.ErrorLog = logPath
}

// =============================================================================
// ERROR LOG ENTRIES
// =============================================================================

func rowErrorEntries(errorType string, rowErrs []csvparser.RowError, ts time.Time) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(rowErrs))
	for _, e := range rowErrs {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    ts,
			ErrorType:    errorType,
			ErrorMessage: e.Err.Error(),
			RowNumber:    e.Row,
		})
	}
	return entries
}

func validationEntries(errs []*validation.ValidationError, ts time.Time) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(errs))
	for _, e := range errs {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    ts,
			ErrorType:    utils.ErrorTypeValidation + " " + strings.ToUpper(e.Severity),
			ErrorMessage: e.Message,
			RowNumber:    e.RowNumber,
			FieldName:    e.Field,
			FieldValue:   e.Value,
		})
	}
	return entries
}

func messageEntries(m *message.Message, ts time.Time) []utils.ErrorLogEntry {
	if len(m.Errors) == 0 {
		text := m.ReturnDesc
		if m.Detail != "" {
			text += "\n" + m.Detail
		}
		return []utils.ErrorLogEntry{{
			Timestamp:    ts,
			ErrorType:    utils.ErrorTypeVision,
			ErrorMessage: text,
		}}
	}
	entries := make([]utils.ErrorLogEntry, 0, len(m.Errors))
	for _, e := range m.Errors {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    ts,
			ErrorType:    utils.ErrorTypeVision + " " + e.Code,
			ErrorMessage: e.Message,
		})
	}
	return entries
}

// Records returns the expense records of path after transformation, without
// sending anything. It backs the dry run of the process command.
func (c *Converter) Records(path string) ([]types.ExpenseRecord, *validation.ValidationResult, error) {
	parsed, err := c.parse(path)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if parsed.HasErrors() {
		return nil, nil, errors.Errorf("%v", parsed.Errors[0])
	}
	records := parsed.Records
	if rowErrs := c.prepare(records); len(rowErrs) > 0 {
		return nil, nil, errors.Errorf("%v", rowErrs[0])
	}
	return records, c.validator.ValidateAll(records), nil
}
