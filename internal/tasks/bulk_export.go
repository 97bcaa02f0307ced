package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for exporting several datasets at once.
type BulkExportOpts struct {
	Format    formatter.Format // Export format (default: csv)
	OutputDir string           // Base output directory (default: equipx_export_{epoch})
	Datasets  []Dataset        // Datasets to export (default: all readable by the caller)
	Admin     bool             // Use the admin endpoints
}

// DatasetExportResult is the outcome of exporting a single dataset.
type DatasetExportResult struct {
	Dataset Dataset `json:"dataset"`
	File    string  `json:"file,omitempty"`
	Rows    int     `json:"rows"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	err     error
}

// Err returns the underlying export error, if any.
func (r DatasetExportResult) Err() error { return r.err }

// BulkExportResult is written to manifest.json at the end of a bulk export.
type BulkExportResult struct {
	ExportedAt        time.Time             `json:"exportedAt"`
	Format            formatter.Format      `json:"format"`
	OutputDirectory   string                `json:"outputDirectory"`
	TotalDatasets     int                   `json:"totalDatasets"`
	SuccessfulExports int                   `json:"successfulExports"`
	FailedExports     int                   `json:"failedExports"`
	Results           []DatasetExportResult `json:"results"`
	ManifestPath      string                `json:"-"`
}

// BulkExport fetches each dataset and writes it to OutputDir, then writes a
// manifest summarizing the run.
//
// Fetches are rate limited and run on the worker pool. Empty datasets and
// failing endpoints are recorded in the manifest; a lost session aborts.
func (e *LendingEngine) BulkExport(ctx context.Context, progress chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.CSV
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("equipx_export_%d", e.now().Unix())
	}
	if len(opts.Datasets) == 0 {
		opts.Datasets = MemberDatasets
		if opts.Admin {
			opts.Datasets = AdminDatasets
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(opts.Datasets)
	result := &BulkExportResult{
		ExportedAt:      e.now(),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		TotalDatasets:   total,
		Results:         make([]DatasetExportResult, 0, total),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(e.limit), 1)
	jobs := make(chan Dataset, total)
	results := make(chan DatasetExportResult, total)

	var wg sync.WaitGroup
	for i := 0; i < min(e.workers, total); i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, ds := range opts.Datasets {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(progress, fetchDatasetUpdate(i+1, total, ds))
			select {
			case jobs <- ds:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var sessionErr error
	for res := range results {
		result.Results = append(result.Results, res)
		step := len(result.Results)
		if !res.Success {
			result.FailedExports++
			e.sendProgress(progress, exportFailedUpdate(step, total, res.Dataset, res.err))
			if shared.IsUnauthenticated(res.err) && sessionErr == nil {
				sessionErr = res.err
				cancel()
			}
			continue
		}
		result.SuccessfulExports++
		e.sendProgress(progress, exportCompletedUpdate(step, total, res.Dataset, res.Rows, res.File))
	}

	if sessionErr != nil {
		return result, sessionErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	if err := formatter.WriteManifest(manifestPath, result); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(progress, manifestUpdate(manifestPath))
	return result, nil
}

func (e *LendingEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan Dataset,
	results chan<- DatasetExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for ds := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- e.exportDataset(ctx, ds, opts)
	}
}

func (e *LendingEngine) exportDataset(ctx context.Context, ds Dataset, opts BulkExportOpts) DatasetExportResult {
	res := DatasetExportResult{Dataset: ds}
	fail := func(err error) DatasetExportResult {
		res.err = err
		res.Error = err.Error()
		return res
	}

	data, err := e.FetchDataset(ctx, ds, opts.Admin)
	if err != nil {
		return fail(err)
	}
	res.Rows = data.Table.Len()

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.%s", ds, opts.Format.Extension()))
	file, err := formatter.WriteExport(path, string(ds), opts.Format, ds.Title(), data.Table, data.Raw)
	if err != nil {
		return fail(err)
	}

	res.File = file
	res.Success = true
	return res
}
