// Package pipeline runs the column cleanup over whole folders of raw
// exports, one worker per file up to a bounded pool.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reorden/backend-go/internal/ingest"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Cleaner normalizes the numeric columns of many export files concurrently.
type Cleaner struct {
	columns []string
	workers int
}

// FileResult is the outcome for one input file. A per-file failure does not
// abort the batch; it is reported here.
type FileResult struct {
	Path    string
	OutPath string
	Report  *ingest.CleanReport
	Err     error
}

func NewCleaner(columns []string, workers int) *Cleaner {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Cleaner{columns: columns, workers: workers}
}

// Run cleans every input file into outDir, keeping the base name. Results
// come back in input order.
func (c *Cleaner) Run(ctx context.Context, inputs []string, outDir string) ([]FileResult, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	results := make([]FileResult, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, path := range inputs {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			outPath := filepath.Join(outDir, filepath.Base(path))
			report, err := c.cleanFile(path, outPath)
			results[i] = FileResult{Path: path, OutPath: outPath, Report: report, Err: err}

			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("pipeline: clean failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListCSVFiles returns the CSV files directly inside dir.
func ListCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func (c *Cleaner) cleanFile(inPath, outPath string) (*ingest.CleanReport, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", inPath, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outPath, err)
	}

	report, err := ingest.CleanColumns(in, out, c.columns)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outPath)
		return nil, err
	}
	return report, nil
}
