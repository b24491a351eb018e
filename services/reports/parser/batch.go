package parser

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
)

// ErrNoReports is returned when a batch yields no records at all.
var ErrNoReports = errors.New("no valid report data found")

func isReportFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html")
}

// ParseDirectory parses every .htm/.html file in dir. Documents are
// independent, so they are parsed concurrently; the indexed result slots
// keep records in directory-discovery order regardless of which worker
// finishes first. Files that cannot be read or parsed are logged and
// skipped, the batch continues.
func ParseDirectory(ctx context.Context, dir string) (*Dataset, error) {
	ctx, span := tracer.Start(ctx, "ParseDirectory")
	defer span.End()
	span.SetAttributes(attribute.String("dir", dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isReportFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}

	records := make([]Record, len(files))
	wg := sync.WaitGroup{}
	for i, name := range files {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()

			content, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				slog.WarnContext(ctx, "failed to read report", "file", name, "err", err)
				return
			}
			rec, err := ParseReport(ctx, content, name)
			if err != nil {
				slog.WarnContext(ctx, "failed to parse report", "file", name, "err", err)
				return
			}
			records[i] = rec
		}(i, name)
	}
	wg.Wait()

	dataset := NewDataset()
	for _, rec := range records {
		if rec != nil {
			dataset.Add(rec)
		}
	}

	span.SetAttributes(attribute.Int("reports", dataset.Len()))
	return dataset, nil
}

// ConvertDirectory is the batch driver: parse every report under dir and
// serialize the column-aligned union to outPath.
func ConvertDirectory(ctx context.Context, dir, outPath string) error {
	dataset, err := ParseDirectory(ctx, dir)
	if err != nil {
		return err
	}
	if dataset.Len() == 0 {
		return ErrNoReports
	}

	slog.InfoContext(ctx, "writing dataset",
		"reports", dataset.Len(),
		"columns", len(dataset.Fields()),
		"out", outPath,
	)
	return dataset.WriteCSVFile(outPath)
}
