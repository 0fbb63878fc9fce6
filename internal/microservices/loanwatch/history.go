package loanwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// History keeps the most recent pass results, newest first on read.
type History interface {
	Append(ctx context.Context, entry HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

const defaultHistorySize = 50

// MemoryHistory is a bounded in-process history.
type MemoryHistory struct {
	mu      sync.Mutex
	size    int
	entries []HistoryEntry
}

func NewMemoryHistory(size int) *MemoryHistory {
	if size <= 0 {
		size = defaultHistorySize
	}
	return &MemoryHistory{size: size}
}

func (h *MemoryHistory) Append(_ context.Context, entry HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.size {
		h.entries = h.entries[len(h.entries)-h.size:]
	}
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, limit int) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}
	out := make([]HistoryEntry, 0, limit)
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.entries[i])
	}
	return out, nil
}

const historyKey = "lendinghub:scan:history"

// RedisHistory stores entries in a capped Redis list so history survives
// restarts and is shared between the API server and scan-once runs.
type RedisHistory struct {
	client *redis.Client
	key    string
	size   int
}

func NewRedisHistory(client *redis.Client, size int) *RedisHistory {
	if size <= 0 {
		size = defaultHistorySize
	}
	return &RedisHistory{client: client, key: historyKey, size: size}
}

func (h *RedisHistory) Append(ctx context.Context, entry HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, h.key, data)
	pipe.LTrim(ctx, h.key, 0, int64(h.size-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append scan history: %w", err)
	}
	return nil
}

func (h *RedisHistory) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > h.size {
		limit = h.size
	}
	raw, err := h.client.LRange(ctx, h.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read scan history: %w", err)
	}
	out := make([]HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
