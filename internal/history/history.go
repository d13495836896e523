// internal/history/history.go
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/events"
)

// Record is one audit trail entry: a harvest report or an additional token
// distribution.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`

	// Harvest fields.
	Gain             math.Int `json:"gain"`
	GovernanceShares math.Int `json:"governance_shares"`
	StrategistShares math.Int `json:"strategist_shares"`
	AssetsBefore     math.Int `json:"assets_before"`

	// Distribution fields.
	Token     string   `json:"token,omitempty"`
	Amount    math.Int `json:"amount"`
	Forwarded math.Int `json:"forwarded"`
}

const (
	KindHarvest      = "harvest"
	KindDistribution = "tree_distribution"
)

// CSVHeaders returns the audit trail CSV column names.
func CSVHeaders() []string {
	return []string{
		"timestamp", "kind", "gain", "governance_shares", "strategist_shares",
		"assets_before", "token", "amount", "forwarded",
	}
}

// ToCSV renders the record as a CSV row.
func (r Record) ToCSV() []string {
	return []string{
		r.Timestamp.Format(time.RFC3339),
		r.Kind,
		r.Gain.String(),
		r.GovernanceShares.String(),
		r.StrategistShares.String(),
		r.AssetsBefore.String(),
		r.Token,
		r.Amount.String(),
		r.Forwarded.String(),
	}
}

// HarvestHistory keeps a bounded in-memory audit trail of harvest activity
// and appends every record to a CSV file. It feeds off the vault event bus.
type HarvestHistory struct {
	mu         sync.RWMutex
	csvWriter  *SafeCSVWriter
	records    []Record
	maxRecords int
	logger     *zap.Logger
	subs       []events.Subscription

	totalHarvests int
	lifetimeGain  math.Int
}

// NewHarvestHistory creates the audit trail, writing CSV rows under logDir.
func NewHarvestHistory(logDir string, maxRecords int, zapLogger *zap.Logger) (*HarvestHistory, error) {
	filename := fmt.Sprintf("harvests_%s.csv", time.Now().Format("20060102_150405"))
	csvPath := filepath.Join(logDir, "harvests", filename)

	csvWriter, err := NewSafeCSVWriter(csvPath, CSVHeaders(), 30*time.Second, zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV writer: %w", err)
	}

	hh := &HarvestHistory{
		csvWriter:    csvWriter,
		records:      make([]Record, 0, maxRecords),
		maxRecords:   maxRecords,
		logger:       zapLogger,
		lifetimeGain: math.ZeroInt(),
	}

	zapLogger.Info("Harvest history initialized",
		zap.String("csv_file", csvPath),
		zap.Int("max_memory_records", maxRecords))

	return hh, nil
}

// Subscribe attaches the history to the vault event bus.
func (hh *HarvestHistory) Subscribe(bus *events.Bus) {
	hh.subs = append(hh.subs,
		bus.SubscribeFunc(events.Harvested, hh.onEvent),
		bus.SubscribeFunc(events.TreeDistribution, hh.onEvent),
	)
}

func (hh *HarvestHistory) onEvent(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.HarvestedEvent:
		return hh.Log(Record{
			Timestamp:        e.Timestamp(),
			Kind:             KindHarvest,
			Gain:             e.Gain,
			GovernanceShares: e.GovernanceShares,
			StrategistShares: e.StrategistShares,
			AssetsBefore:     e.AssetsBefore,
			Amount:           math.ZeroInt(),
			Forwarded:        math.ZeroInt(),
		})
	case *events.TreeDistributionEvent:
		return hh.Log(Record{
			Timestamp:        e.Timestamp(),
			Kind:             KindDistribution,
			Gain:             math.ZeroInt(),
			GovernanceShares: math.ZeroInt(),
			StrategistShares: math.ZeroInt(),
			AssetsBefore:     math.ZeroInt(),
			Token:            e.Token.Hex(),
			Amount:           e.Amount,
			Forwarded:        e.Forwarded,
		})
	}
	return nil
}

// Log appends a record to the CSV file and the in-memory buffer.
func (hh *HarvestHistory) Log(record Record) error {
	hh.mu.Lock()
	defer hh.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	if err := hh.csvWriter.WriteRecord(record.ToCSV()); err != nil {
		hh.logger.Error("Failed to write record to CSV",
			zap.String("record_id", record.ID),
			zap.Error(err))
		return fmt.Errorf("failed to write record: %w", err)
	}

	if len(hh.records) >= hh.maxRecords {
		hh.records = hh.records[1:]
	}
	hh.records = append(hh.records, record)

	if record.Kind == KindHarvest {
		hh.totalHarvests++
		hh.lifetimeGain = hh.lifetimeGain.Add(record.Gain)
	}

	return nil
}

// GetRecentRecords returns the most recent records from memory.
func (hh *HarvestHistory) GetRecentRecords(limit int) []Record {
	hh.mu.RLock()
	defer hh.mu.RUnlock()

	if limit <= 0 || limit > len(hh.records) {
		limit = len(hh.records)
	}

	start := len(hh.records) - limit
	result := make([]Record, limit)
	copy(result, hh.records[start:])
	return result
}

// GetStatistics returns aggregate harvest statistics.
func (hh *HarvestHistory) GetStatistics() Statistics {
	hh.mu.RLock()
	defer hh.mu.RUnlock()

	return Statistics{
		TotalHarvests: hh.totalHarvests,
		LifetimeGain:  hh.lifetimeGain,
	}
}

// Flush forces a write of any buffered records.
func (hh *HarvestHistory) Flush() error {
	return hh.csvWriter.Flush()
}

// Close unsubscribes from the bus and closes the CSV file.
func (hh *HarvestHistory) Close() error {
	for _, sub := range hh.subs {
		sub.Unsubscribe()
	}

	stats := hh.GetStatistics()
	hh.logger.Info("Closing harvest history",
		zap.Int("total_harvests", stats.TotalHarvests),
		zap.String("lifetime_gain", stats.LifetimeGain.String()))

	return hh.csvWriter.Close()
}

// Statistics holds aggregate harvest statistics.
type Statistics struct {
	TotalHarvests int      `json:"total_harvests"`
	LifetimeGain  math.Int `json:"lifetime_gain"`
}
