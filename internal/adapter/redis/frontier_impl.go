package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/frontier-crawler/internal/entity"
	"github.com/user/frontier-crawler/internal/repository"
)

const (
	// DefaultKeyPrefix namespaces every key this package writes.
	DefaultKeyPrefix = "frontier:"

	entryInfix       = "url:"
	failureInfix     = "failures:"
	resumePointerKey = "lastcrawled"

	scanBatch = 1000
)

// FrontierRepoImpl provides a concrete implementation for the FrontierRepository interface using Redis.
//
// Each URL is one string key `<prefix>url:<url>` holding "pending" or "visited" with a TTL.
// The resume pointer is the key `<prefix>lastcrawled` and has no TTL.
type FrontierRepoImpl struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewFrontierRepo creates a new instance of FrontierRepoImpl. Every entry write resets the key's TTL to ttl.
func NewFrontierRepo(client *redis.Client, prefix string, ttl time.Duration) *FrontierRepoImpl {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &FrontierRepoImpl{client: client, prefix: prefix, ttl: ttl}
}

func (r *FrontierRepoImpl) entryKey(url string) string {
	return r.prefix + entryInfix + url
}

func (r *FrontierRepoImpl) entryPattern() string {
	return r.prefix + entryInfix + "*"
}

func (r *FrontierRepoImpl) urlFromKey(key string) string {
	return strings.TrimPrefix(key, r.prefix+entryInfix)
}

func (r *FrontierRepoImpl) pointerKey() string {
	return r.prefix + resumePointerKey
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", repository.ErrFrontierUnavailable, op, err)
}

// Get reads the status and remaining TTL of url in one round trip.
func (r *FrontierRepoImpl) Get(ctx context.Context, url string) (entity.FrontierEntry, error) {
	key := r.entryKey(url)

	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return entity.FrontierEntry{}, unavailable("get", err)
	}

	val, err := getCmd.Result()
	if errors.Is(err, redis.Nil) {
		return entity.FrontierEntry{URL: url, Status: entity.StatusUnknown}, nil
	}
	if err != nil {
		return entity.FrontierEntry{}, unavailable("get", err)
	}

	entry := entity.FrontierEntry{URL: url, Status: entity.ParseStatus(val)}
	// PTTL reports -1 for no expiry and -2 for a key that vanished between the two commands.
	if ttl := ttlCmd.Val(); ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	return entry, nil
}

// Exists checks for a live entry of url in any status.
func (r *FrontierRepoImpl) Exists(ctx context.Context, url string) (bool, error) {
	// EXISTS returns 1 if the key exists, 0 otherwise.
	n, err := r.client.Exists(ctx, r.entryKey(url)).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n == 1, nil
}

// MarkPending overwrites url as pending. SET with EX replaces the old TTL rather than extending it.
func (r *FrontierRepoImpl) MarkPending(ctx context.Context, url string) error {
	if err := r.client.Set(ctx, r.entryKey(url), string(entity.StatusPending), r.ttl).Err(); err != nil {
		return unavailable("mark pending", err)
	}
	return nil
}

// MarkVisited writes the visited entry and the resume pointer in one MULTI/EXEC.
func (r *FrontierRepoImpl) MarkVisited(ctx context.Context, url string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.entryKey(url), string(entity.StatusVisited), r.ttl)
		pipe.Set(ctx, r.pointerKey(), url, 0)
		return nil
	})
	if err != nil {
		return unavailable("mark visited", err)
	}
	return nil
}

// scan walks every entry key, calling fn once per distinct key with its batch. SCAN may repeat
// keys across batches, so duplicates are filtered here. fn returns false to stop early.
func (r *FrontierRepoImpl) scan(ctx context.Context, fn func(keys []string) (bool, error)) error {
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.entryPattern(), scanBatch).Result()
		if err != nil {
			return unavailable("scan", err)
		}

		fresh := keys[:0]
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			fresh = append(fresh, k)
		}
		if len(fresh) > 0 {
			more, err := fn(fresh)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Size counts entry keys with a full SCAN. Expired keys are never returned by Redis.
func (r *FrontierRepoImpl) Size(ctx context.Context) (int64, error) {
	var n int64
	err := r.scan(ctx, func(keys []string) (bool, error) {
		n += int64(len(keys))
		return true, nil
	})
	return n, err
}

// ListPending returns pending URLs in SCAN order, which is the hash table order of the server.
func (r *FrontierRepoImpl) ListPending(ctx context.Context, limit int) ([]string, error) {
	var pending []string
	err := r.scan(ctx, func(keys []string) (bool, error) {
		vals, err := r.client.MGet(ctx, keys...).Result()
		if err != nil {
			return false, unavailable("list pending", err)
		}
		for i, v := range vals {
			// nil means the key expired between SCAN and MGET.
			s, ok := v.(string)
			if !ok || entity.ParseStatus(s) != entity.StatusPending {
				continue
			}
			pending = append(pending, r.urlFromKey(keys[i]))
			if limit > 0 && len(pending) >= limit {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// ResumePointer returns "" when no URL has been visited yet.
func (r *FrontierRepoImpl) ResumePointer(ctx context.Context) (string, error) {
	url, err := r.client.Get(ctx, r.pointerKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("resume pointer", err)
	}
	return url, nil
}

func (r *FrontierRepoImpl) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *FrontierRepoImpl) Close() error {
	return r.client.Close()
}
