package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/exporter"
	"esgcli/internal/files"
	"esgcli/internal/infrastructure"
	"esgcli/internal/returns"
)

// BatchLogFile is the CSV in the logs directory that every completed batch
// run appends one row per input file to.
const BatchLogFile = "batch_runs.csv"

var batchLogHeader = []string{"run_at", "file", "input_rows", "output_rows", "company_years", "report", "error"}

// BatchResult is the outcome of one input file of a batch run. Error is
// set when the file was skipped.
type BatchResult struct {
	File   string        `json:"file"`
	Report string        `json:"report,omitempty"`
	Stats  returns.Stats `json:"stats"`
	Error  string        `json:"error,omitempty"`
}

// BatchResults are the results of a batch run in file name order.
type BatchResults []BatchResult

// Failed counts the skipped files.
func (r BatchResults) Failed() int {
	n := 0
	for _, res := range r {
		if res.Error != "" {
			n++
		}
	}
	return n
}

// Markdown renders one row per input file.
func (r BatchResults) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Batch run\n\nFiles: %d, failed: %d\n\n", len(r), r.Failed())
	b.WriteString("| File | Input rows | Output rows | Company years | Report |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, res := range r {
		report := filepath.Base(res.Report)
		if res.Error != "" {
			report = "error: " + strings.ReplaceAll(res.Error, "|", `\|`)
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %s |\n",
			res.File, res.Stats.InputRows, res.Stats.OutputRows, res.Stats.Groups, report)
	}
	return b.String()
}

// logRecords renders the results as rows of the batch run log.
func (r BatchResults) logRecords(now time.Time) [][]string {
	runAt := now.UTC().Format(time.RFC3339)
	records := make([][]string, 0, len(r))
	for _, res := range r {
		records = append(records, []string{
			runAt,
			res.File,
			strconv.Itoa(res.Stats.InputRows),
			strconv.Itoa(res.Stats.OutputRows),
			strconv.Itoa(res.Stats.Groups),
			filepath.Base(res.Report),
			res.Error,
		})
	}
	return records
}

// BatchService runs the engine over every input file of a directory and
// lists the reports written so far.
type BatchService struct {
	returns   *ReturnsService
	paths     *config.Paths
	discovery *files.Discovery
	validator *files.FileValidator
	writer    *exporter.CSVWriter
	precision int
	logger    *slog.Logger
}

// NewBatchService creates the service. Reports go to the reports directory
// of paths.
func NewBatchService(returnsSvc *ReturnsService, paths *config.Paths, precision int, logger *slog.Logger) *BatchService {
	return &BatchService{
		returns:   returnsSvc,
		paths:     paths,
		discovery: files.NewDiscovery(paths.BaseDir),
		validator: files.NewFileValidator(logger),
		writer:    exporter.NewCSVWriter(paths),
		precision: precision,
		logger:    infrastructure.WithComponent(logger, "batch_service"),
	}
}

// Run processes the CSV and Excel files of dir in name order and writes one
// annotated report per file. A failing file is recorded and the run goes on;
// only an unreadable directory, an unwritable reports directory or a
// cancelled context fail the run.
func (s *BatchService) Run(ctx context.Context, dir string, o Overrides, now time.Time) (BatchResults, error) {
	inputs, err := s.discovery.FindInputFiles(dir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list input files", err).WithContext("dir", dir)
	}
	if err := s.validator.ValidateOutputDirectory(s.paths.ReportsDir); err != nil {
		return nil, apperrors.NewStorageError("reports directory is not writable", err)
	}

	s.logger.InfoContext(ctx, "batch started",
		slog.String("dir", dir),
		slog.Int("files", len(inputs)))

	results := make(BatchResults, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := BatchResult{File: in.Name}
		if err := s.process(ctx, in, o, now, &res); err != nil {
			res.Error = err.Error()
			s.logger.WarnContext(ctx, "batch file failed",
				slog.String("file", in.Name),
				slog.String("error", err.Error()))
		}
		results = append(results, res)
	}

	s.appendRunLog(ctx, results, now)

	s.logger.InfoContext(ctx, "batch finished",
		slog.Int("files", len(results)),
		slog.Int("failed", results.Failed()))
	return results, nil
}

func (s *BatchService) process(ctx context.Context, in files.FileInfo, o Overrides, now time.Time, res *BatchResult) error {
	if err := s.validator.ValidateFile(in.Path); err != nil {
		return err
	}
	report, err := s.returns.ComputeFile(ctx, in.Path, o)
	if err != nil {
		return err
	}
	res.Stats = report.Stats

	out := s.paths.GetAnnotatedReportPath(in.Path, now)
	if err := s.writer.WriteAnnotated(out, report.Table, s.precision); err != nil {
		return err
	}
	res.Report = out
	return nil
}

// appendRunLog records the run in the batch log. A log that cannot be
// written does not fail the run.
func (s *BatchService) appendRunLog(ctx context.Context, results BatchResults, now time.Time) {
	if len(results) == 0 {
		return
	}
	path := s.paths.GetLogPath(BatchLogFile)
	records := results.logRecords(now)

	var err error
	if config.FileExists(path) {
		err = s.writer.AppendToCSV(path, records)
	} else {
		err = s.writer.WriteSimpleCSV(path, batchLogHeader, records)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "batch run log not written",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// Reports lists the CSV and JSON reports of the reports directory.
func (s *BatchService) Reports() ([]files.FileInfo, error) {
	reports, err := s.discovery.FindFiles(s.paths.ReportsDir, ".csv", ".json")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list reports", err)
	}
	return reports, nil
}
