package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
)

var (
	historyKey    = []byte("scan_history")
	lastResultKey = []byte("last_result")
)

// BadgerHistory is a BadgerDB-backed HistoryRepository. The full rolling
// log is stored as one JSON document under a single key, mirroring how
// the popup and background contexts share one storage slot: every append
// is a read-modify-write that prepends and truncates to the cap.
type BadgerHistory struct {
	db         *badger.DB
	maxEntries int
	logger     *zap.Logger
}

// lastResultRecord wraps a handoff verdict with its storage time so the
// validity window can be enforced on read.
type lastResultRecord struct {
	Result   *core.ClassificationResult `json:"result"`
	StoredAt time.Time                  `json:"stored_at"`
}

// NewBadgerHistory opens (or creates) the history database at dbPath.
func NewBadgerHistory(dbPath string, maxEntries int, logger *zap.Logger) (*BadgerHistory, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}

	logger.Info("Scan history store opened", zap.String("path", dbPath))

	return &BadgerHistory{
		db:         db,
		maxEntries: maxEntries,
		logger:     logger,
	}, nil
}

// Close closes the underlying database.
func (h *BadgerHistory) Close() error {
	return h.db.Close()
}

// Append prepends an item and evicts anything beyond the cap.
func (h *BadgerHistory) Append(ctx context.Context, item core.ScanHistoryItem) error {
	err := h.db.Update(func(txn *badger.Txn) error {
		items, err := readItems(txn)
		if err != nil {
			return err
		}

		items = append([]core.ScanHistoryItem{item}, items...)
		if h.maxEntries > 0 && len(items) > h.maxEntries {
			items = items[:h.maxEntries]
		}

		raw, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		return txn.Set(historyKey, raw)
	})
	if err != nil {
		return fmt.Errorf("failed to append history item: %w", err)
	}
	return nil
}

// Recent returns up to limit items, newest first.
func (h *BadgerHistory) Recent(ctx context.Context, limit int) ([]core.ScanHistoryItem, error) {
	var items []core.ScanHistoryItem
	err := h.db.View(func(txn *badger.Txn) error {
		var err error
		items, err = readItems(txn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

// SetLastResult stores a transient result for cross-context handoff.
func (h *BadgerHistory) SetLastResult(ctx context.Context, result *core.ClassificationResult) error {
	record := lastResultRecord{Result: result, StoredAt: time.Now()}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal last result: %w", err)
	}

	err = h.db.Update(func(txn *badger.Txn) error {
		return txn.Set(lastResultKey, raw)
	})
	if err != nil {
		return fmt.Errorf("failed to store last result: %w", err)
	}
	return nil
}

// LastResult returns the handoff result if it is younger than maxAge.
func (h *BadgerHistory) LastResult(ctx context.Context, maxAge time.Duration) (*core.ClassificationResult, bool, error) {
	var record lastResultRecord
	found := false

	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(lastResultKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &record); err != nil {
				return fmt.Errorf("failed to unmarshal last result: %w", err)
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read last result: %w", err)
	}

	if !found || record.Result == nil || time.Since(record.StoredAt) >= maxAge {
		return nil, false, nil
	}
	return record.Result, true, nil
}

func readItems(txn *badger.Txn) ([]core.ScanHistoryItem, error) {
	item, err := txn.Get(historyKey)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []core.ScanHistoryItem
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &items)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return items, nil
}
