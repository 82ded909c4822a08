package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
)

// MySQLCache is a MySQL implementation of the ResultCache port, letting a
// fleet of scanner daemons share one warm verdict cache.
type MySQLCache struct {
	db          *sql.DB
	ttl         time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL cache.
func NewMySQLCache(dsn string, ttl time.Duration, cleanupFreq time.Duration, logger *zap.Logger) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn+"?parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS url_cache (
			url VARCHAR(2048) NOT NULL,
			url_hash CHAR(64) NOT NULL PRIMARY KEY,
			result_json TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			INDEX idx_url_cache_created_at (created_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Get(url string) (*core.CacheEntry, bool) {
	var resultJSON string
	var createdAt time.Time

	err := c.db.QueryRow(
		`SELECT result_json, created_at FROM url_cache WHERE url_hash = SHA2(?, 256)`, url,
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
func (c *MySQLCache) Set(url string, result *core.ClassificationResult) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("Failed to encode result for cache", zap.Error(err))
		return
	}

	_, err = c.db.Exec(
		`INSERT INTO url_cache (url, url_hash, result_json, created_at)
		 VALUES (?, SHA2(?, 256), ?, ?)
		 ON DUPLICATE KEY UPDATE result_json = VALUES(result_json), created_at = VALUES(created_at)`,
		url, url, string(resultJSON), time.Now(),
	)
	if err != nil {
		c.logger.Error("Failed to store cache entry", zap.Error(err))
	}
}

// Cleanup removes expired entries.
func (c *MySQLCache) Cleanup(ctx context.Context) error {
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

func (c *MySQLCache) startCleanupTask() {
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

// Stop stops the cleanup task and closes the connection pool.
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL cache", zap.Error(err))
	}
}
