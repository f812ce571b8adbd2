package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/reorden/backend-go/internal/ingest"
	"github.com/reorden/backend-go/internal/pipeline"
	"github.com/urfave/cli/v2"
)

func runClean(c *cli.Context) error {
	columns := splitColumns(c.String("columns"))

	info, err := os.Stat(c.String("in"))
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return runCleanBatch(c, columns)
	}

	in, err := os.Open(c.String("in"))
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(c.String("out"))
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	report, err := ingest.CleanColumns(in, out, columns)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d rows, cleaned columns: %s\n", report.RowsWritten, strings.Join(report.CleanedColumns, ", "))
	if len(report.MissingColumns) > 0 {
		fmt.Printf("Columns not found in the file: %s\n", strings.Join(report.MissingColumns, ", "))
	}
	return nil
}

// runCleanBatch cleans every CSV in the input directory into the output
// directory.
func runCleanBatch(c *cli.Context, columns []string) error {
	files, err := pipeline.ListCSVFiles(c.String("in"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No CSV files found.")
		return nil
	}

	cleaner := pipeline.NewCleaner(columns, c.Int("workers"))
	results, err := cleaner.Run(c.Context, files, c.String("out"))
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, res.Err)
			continue
		}
		fmt.Printf("%s: %d rows\n", res.OutPath, res.Report.RowsWritten)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func splitColumns(raw string) []string {
	var columns []string
	for _, col := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(col); trimmed != "" {
			columns = append(columns, trimmed)
		}
	}
	return columns
}
