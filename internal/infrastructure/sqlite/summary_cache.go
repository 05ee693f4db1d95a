package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/zjrosen/buddy/internal/cachemanager"
	"github.com/zjrosen/buddy/internal/log"
	"github.com/zjrosen/buddy/internal/record"
)

// SummaryCache keeps fetched record summaries across runs. Expired rows are
// ignored on read and removed by Flush or a later Set of the same key.
type SummaryCache struct {
	db  *sql.DB
	now func() time.Time
}

var _ cachemanager.CacheManager[cachemanager.Key, *record.Summary] = (*SummaryCache)(nil)

func newSummaryCache(db *sql.DB) *SummaryCache {
	return &SummaryCache{db: db, now: time.Now}
}

func encodeSummary(s *record.Summary) ([]byte, error) {
	pairs := make([][2]string, 0, s.Len())
	for _, k := range s.Keys() {
		v, _ := s.Get(k)
		pairs = append(pairs, [2]string{k, v})
	}
	raw, err := json.Marshal(pairs)
	if err != nil {
		return nil, err
	}
	return compress(raw), nil
}

func decodeSummary(data []byte) (*record.Summary, error) {
	raw, err := decompress(data)
	if err != nil {
		return nil, err
	}
	var pairs [][2]string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}
	s := record.NewSummary()
	for _, kv := range pairs {
		s.Set(kv[0], kv[1])
	}
	return s, nil
}

func (c *SummaryCache) Get(ctx context.Context, key cachemanager.Key) (*record.Summary, bool) {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM summaries WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		string(key), c.now().Unix(),
	).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn(log.CatCache, "summary cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	s, err := decodeSummary(data)
	if err != nil {
		log.Warn(log.CatCache, "summary cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return s, true
}

func (c *SummaryCache) GetMany(ctx context.Context, keys []cachemanager.Key) (map[cachemanager.Key]*record.Summary, []cachemanager.Key) {
	hits := make(map[cachemanager.Key]*record.Summary, len(keys))
	var missing []cachemanager.Key
	for _, k := range keys {
		if s, ok := c.Get(ctx, k); ok {
			hits[k] = s
			continue
		}
		missing = append(missing, k)
	}
	return hits, missing
}

// GetWithRefresh returns the entry and pushes its expiry to ttl from now.
func (c *SummaryCache) GetWithRefresh(ctx context.Context, key cachemanager.Key, ttl time.Duration) (*record.Summary, bool) {
	s, ok := c.Get(ctx, key)
	if !ok {
		return nil, false
	}
	if _, err := c.db.ExecContext(ctx, `UPDATE summaries SET expires_at = ? WHERE key = ?`,
		c.expiry(ttl), string(key)); err != nil {
		log.Warn(log.CatCache, "summary cache refresh failed", "key", key, "error", err)
	}
	return s, true
}

// Set stores s. A ttl of zero or less never expires.
func (c *SummaryCache) Set(ctx context.Context, key cachemanager.Key, s *record.Summary, ttl time.Duration) {
	data, err := encodeSummary(s)
	if err != nil {
		log.Warn(log.CatCache, "summary cache encode failed", "key", key, "error", err)
		return
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO summaries (key, data, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		string(key), data, c.expiry(ttl),
	)
	if err != nil {
		log.Warn(log.CatCache, "summary cache write failed", "key", key, "error", err)
	}
}

func (c *SummaryCache) expiry(ttl time.Duration) *int64 {
	if ttl <= 0 {
		return nil
	}
	at := c.now().Add(ttl).Unix()
	return &at
}

func (c *SummaryCache) Delete(ctx context.Context, keys ...cachemanager.Key) error {
	for _, k := range keys {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM summaries WHERE key = ?`, string(k)); err != nil {
			return err
		}
	}
	return nil
}

// Flush removes every entry.
func (c *SummaryCache) Flush(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM summaries`)
	return err
}

// ItemCount counts unexpired entries.
func (c *SummaryCache) ItemCount() int {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM summaries WHERE expires_at IS NULL OR expires_at > ?`,
		c.now().Unix()).Scan(&n)
	if err != nil {
		return 0
	}
	return n
}
