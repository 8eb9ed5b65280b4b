package record

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader reads book records from a corpus file.
type Loader struct {
	corpusPath string
}

// NewLoader creates a loader for the given corpus file.
func NewLoader(corpusPath string) *Loader {
	return &Loader{
		corpusPath: corpusPath,
	}
}

// Load loads all records from the corpus file (JSONL or Parquet).
func (l *Loader) Load() ([]BookRecord, error) {
	ext := strings.ToLower(filepath.Ext(l.corpusPath))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".jsonl", ".json":
		return l.loadJSONL()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// loadJSONL loads records from a JSONL file. Malformed lines are skipped
// with a warning rather than aborting the whole load; data quality varies
// wildly across crawled sources.
func (l *Loader) loadJSONL() ([]BookRecord, error) {
	slog.Debug("Opening JSONL corpus", "path", l.corpusPath)

	file, err := os.Open(l.corpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer file.Close()

	var records []BookRecord
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large JSON lines
	const maxCapacity = 1024 * 1024 // 1MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	skipped := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var rec BookRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			slog.Warn("Skipping malformed record", "line", lineNum, "err", err)
			skipped++
			continue
		}

		records = append(records, rec)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading corpus: %w", err)
	}

	slog.Debug("Finished reading JSONL corpus", "total_records", len(records), "skipped", skipped)

	return records, nil
}

// loadParquet loads records from a Parquet file.
func (l *Loader) loadParquet() ([]BookRecord, error) {
	slog.Debug("Opening Parquet corpus", "path", l.corpusPath)

	file, err := os.Open(l.corpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet corpus opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[BookRecord](pf)
	defer reader.Close()

	var records []BookRecord
	rows := make([]BookRecord, 128) // Read in batches

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet corpus", "total_records", len(records))

	return records, nil
}

// LoadSample loads at most limit records (useful for testing).
func (l *Loader) LoadSample(limit int) ([]BookRecord, error) {
	records, err := l.Load()
	if err != nil {
		return nil, err
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// LoadWithFilter loads records matching a filter function.
func (l *Loader) LoadWithFilter(filterFn func(*BookRecord) bool) ([]BookRecord, error) {
	records, err := l.Load()
	if err != nil {
		return nil, err
	}

	filtered := records[:0]
	for _, rec := range records {
		if filterFn(&rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// SaveJSONL writes records to a JSONL file, one record per line.
func SaveJSONL(records []BookRecord, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	slog.Debug("Saved JSONL corpus", "path", path, "records", len(records))

	return nil
}
