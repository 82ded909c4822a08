package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
)

// SQLiteCache is a SQLite implementation of the ResultCache port, for
// deployments that want the verdict cache warm across restarts. Note that
// the default memory cache intentionally does NOT persist: stale security
// verdicts should not survive long.
type SQLiteCache struct {
	db          *sql.DB
	ttl         time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite cache.
func NewSQLiteCache(dbPath string, ttl time.Duration, cleanupFreq time.Duration, logger *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS url_cache (
			url TEXT PRIMARY KEY,
			result_json TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_url_cache_created_at ON url_cache(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		ttl:         ttl,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get returns the entry for a URL, or false if absent or expired.
func (c *SQLiteCache) Get(url string) (*core.CacheEntry, bool) {
	var resultJSON string
	var createdAt time.Time

	err := c.db.QueryRow(
		`SELECT result_json, created_at FROM url_cache WHERE url = ?`, url,
	).Scan(&resultJSON, &createdAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query cache", zap.Error(err))
		}
		return nil, false
	}

	if time.Since(createdAt) >= c.ttl {
		return nil, false
	}

	var result core.ClassificationResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		c.logger.Error("Failed to decode cached result", zap.Error(err))
		return nil, false
	}

	return &core.CacheEntry{URL: url, Result: &result, Timestamp: createdAt}, true
}

// Set stores a fresh entry for a URL.
func (c *SQLiteCache) Set(url string, result *core.ClassificationResult) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("Failed to encode result for cache", zap.Error(err))
		return
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO url_cache (url, result_json, created_at) VALUES (?, ?, ?)`,
		url, string(resultJSON), time.Now(),
	)
	if err != nil {
		c.logger.Error("Failed to store cache entry", zap.Error(err))
	}
}

// Cleanup removes expired entries.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM url_cache WHERE created_at < ?`, time.Now().Add(-c.ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", n))
	}
	return nil
}

func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the cleanup task and closes the database.
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite cache", zap.Error(err))
	}
}
