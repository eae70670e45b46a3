package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const presenceKeyPrefix = "arena:presence:"

// RedisPresenceTracker keeps the set of connected users per room in Redis,
// so every process behind the gateway sees the same counts
type RedisPresenceTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPresenceTracker creates a tracker on an existing client
func NewRedisPresenceTracker(rdb *redis.Client) *RedisPresenceTracker {
	return &RedisPresenceTracker{
		rdb: rdb,
		ttl: 24 * time.Hour,
	}
}

// NewRedisClient connects to addr and verifies the connection
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	log.WithField("addr", addr).Info("Connected to Redis")
	return rdb, nil
}

func presenceKey(room string) string {
	return presenceKeyPrefix + room
}

// Connect adds the user to the room and returns the new member count
func (t *RedisPresenceTracker) Connect(ctx context.Context, room string, userID int64) (int64, error) {
	key := presenceKey(room)

	pipe := t.rdb.TxPipeline()
	pipe.SAdd(ctx, key, strconv.FormatInt(userID, 10))
	pipe.Expire(ctx, key, t.ttl)
	count := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record presence of %d in %s: %w", userID, room, err)
	}
	return count.Val(), nil
}

// Disconnect removes the user from the room and returns the new member count
func (t *RedisPresenceTracker) Disconnect(ctx context.Context, room string, userID int64) (int64, error) {
	key := presenceKey(room)

	pipe := t.rdb.TxPipeline()
	pipe.SRem(ctx, key, strconv.FormatInt(userID, 10))
	count := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to remove presence of %d in %s: %w", userID, room, err)
	}
	return count.Val(), nil
}

// Count returns the number of users in the room
func (t *RedisPresenceTracker) Count(ctx context.Context, room string) (int64, error) {
	count, err := t.rdb.SCard(ctx, presenceKey(room)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count presence in %s: %w", room, err)
	}
	return count, nil
}

// MemoryPresenceTracker is a single-process tracker used when no Redis is configured
type MemoryPresenceTracker struct {
	mu    sync.Mutex
	rooms map[string]map[int64]struct{}
}

// NewMemoryPresenceTracker creates an empty in-process tracker
func NewMemoryPresenceTracker() *MemoryPresenceTracker {
	return &MemoryPresenceTracker{rooms: make(map[string]map[int64]struct{})}
}

func (t *MemoryPresenceTracker) Connect(ctx context.Context, room string, userID int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members, ok := t.rooms[room]
	if !ok {
		members = make(map[int64]struct{})
		t.rooms[room] = members
	}
	members[userID] = struct{}{}
	return int64(len(members)), nil
}

func (t *MemoryPresenceTracker) Disconnect(ctx context.Context, room string, userID int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members := t.rooms[room]
	delete(members, userID)
	if len(members) == 0 {
		delete(t.rooms, room)
	}
	return int64(len(members)), nil
}

func (t *MemoryPresenceTracker) Count(ctx context.Context, room string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(len(t.rooms[room])), nil
}
