// internal/history/export.go
package history

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cosmossdk.io/math"
	"go.uber.org/zap"
)

// ExportFormat represents the export file format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions configures the export behavior.
type ExportOptions struct {
	Format     ExportFormat
	StartTime  time.Time
	EndTime    time.Time
	KindFilter string
	OutputDir  string
}

// Exporter writes audit trail snapshots to disk.
type Exporter struct {
	logger *zap.Logger
}

func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export writes the filtered records and returns the output path.
func (e *Exporter) Export(records []Record, options ExportOptions) (string, error) {
	filtered := e.filter(records, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no records match the export criteria")
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, e.filename(options))

	var err error
	switch options.Format {
	case FormatCSV:
		err = e.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = e.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("Records exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func (e *Exporter) filter(records []Record, options ExportOptions) []Record {
	var filtered []Record
	for _, record := range records {
		if !options.StartTime.IsZero() && record.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && record.Timestamp.After(options.EndTime) {
			continue
		}
		if options.KindFilter != "" && record.Kind != options.KindFilter {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

func (e *Exporter) filename(options ExportOptions) string {
	timestamp := time.Now().Format("20060102_150405")
	prefix := "harvests_all"
	if options.KindFilter != "" {
		prefix = "harvests_" + options.KindFilter
	}
	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

func (e *Exporter) exportToCSV(records []Record, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record.ToCSV()); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

func (e *Exporter) exportToJSON(records []Record, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	exportData := struct {
		ExportTime  time.Time     `json:"export_time"`
		RecordCount int           `json:"record_count"`
		Records     []Record      `json:"records"`
		Summary     ExportSummary `json:"summary"`
	}{
		ExportTime:  time.Now(),
		RecordCount: len(records),
		Records:     records,
		Summary:     e.summary(records),
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (e *Exporter) summary(records []Record) ExportSummary {
	summary := ExportSummary{
		TotalRecords: len(records),
		TotalGain:    math.ZeroInt(),
	}
	if len(records) == 0 {
		return summary
	}

	summary.StartDate = records[0].Timestamp
	summary.EndDate = records[len(records)-1].Timestamp

	tokenSet := make(map[string]bool)
	for _, record := range records {
		switch record.Kind {
		case KindHarvest:
			summary.HarvestCount++
			summary.TotalGain = summary.TotalGain.Add(record.Gain)
		case KindDistribution:
			summary.DistributionCount++
			if record.Token != "" {
				tokenSet[record.Token] = true
			}
		}
	}
	summary.UniqueTokens = len(tokenSet)
	return summary
}

// ExportSummary contains aggregate statistics for an export.
type ExportSummary struct {
	TotalRecords      int       `json:"total_records"`
	HarvestCount      int       `json:"harvest_count"`
	DistributionCount int       `json:"distribution_count"`
	UniqueTokens      int       `json:"unique_tokens"`
	TotalGain         math.Int  `json:"total_gain"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
}
