package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/defconcepts/sipcoverage/internal/coverage"
	"github.com/defconcepts/sipcoverage/internal/doxygen"
)

// DefaultConcurrency is the number of files parsed at once when no
// WithConcurrency option is given.
const DefaultConcurrency = 4

// FileResult is the outcome of ingesting one XML file.
type FileResult struct {
	// Path is the file that was read.
	Path string

	// Compounds is the number of compounddef elements decoded.
	Compounds int

	// Tally holds the classes of this file. Malformed XML is recorded in
	// Tally.ParseErrors, with every class decoded before the error kept.
	Tally *coverage.Tally

	// Err is set when the file could not be read at all.
	Err error
}

// IngestFile parses one file and classifies its classes.
func IngestFile(path string, classifier *coverage.Classifier) FileResult {
	res := FileResult{Path: path, Tally: coverage.NewTally()}
	res.Tally.Files = 1

	n, err := doxygen.ParseFile(path, func(cd *doxygen.Compound) error {
		if cr, ok := classifier.Classify(cd); ok {
			res.Tally.Add(cr)
		}
		return nil
	})
	res.Compounds = n

	var perr *doxygen.ParseError
	switch {
	case errors.As(err, &perr):
		res.Tally.AddParseError(perr)
	case err != nil:
		res.Err = err
	}
	return res
}

// BatchProcessor ingests many XML files concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	classifier  *coverage.Classifier
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of files parsed at once.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(classifier *coverage.Classifier, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		classifier:  classifier,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessFiles ingests files concurrently. Results are returned in the
// order of files, whatever order they finished in. The error is non-nil
// only when ctx was cancelled; per-file failures are in the results.
func (bp *BatchProcessor) ProcessFiles(ctx context.Context, files []string) ([]FileResult, error) {
	bp.logger.Info("starting batch ingest",
		"total_files", len(files),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// each goroutine writes only its own slot
	results := make([]FileResult, len(files))
	err := bp.ProcessFilesWithCallback(ctx, files, func(res FileResult, index int) {
		results[index] = res
	})

	bp.logger.Info("batch ingest complete",
		"total_files", len(files),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessFilesWithCallback ingests files and calls callback for each
// completed file with its index in files. The callback is called from the
// goroutine that parsed the file, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessFilesWithCallback(
	ctx context.Context,
	files []string,
	callback func(res FileResult, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res := IngestFile(path, bp.classifier)

			switch {
			case res.Err != nil:
				bp.logger.Warn("failed to read file", "file", path, "error", res.Err)
			case len(res.Tally.ParseErrors) > 0:
				bp.logger.Warn("malformed XML", "file", path, "error", res.Tally.ParseErrors[0].Message)
			default:
				bp.logger.Debug("file ingested", "file", path, "compounds", res.Compounds)
			}

			callback(res, i)
			return nil
		})
	}

	return g.Wait()
}

// MergeResults merges per-file tallies in order and sorts the result.
// Files that could not be read are returned as errors; their tallies are
// still counted in Files.
func MergeResults(results []FileResult) (*coverage.Tally, error) {
	total := coverage.NewTally()
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
		total.Merge(r.Tally)
	}
	total.Sort()
	return total, errors.Join(errs...)
}
