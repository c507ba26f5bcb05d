package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/types"
)

// PolicyCache is a read-through cache for room policies. Policies are read on
// every entry evaluation and written only by administrative action, so a short
// TTL plus invalidation on writes keeps the hot path off the database.
type PolicyCache interface {
	Get(ctx context.Context, roomName string) (*types.RoomPolicy, bool)
	Set(ctx context.Context, roomName string, policy *types.RoomPolicy)
	Invalidate(ctx context.Context, roomName string)
}

type redisPolicyCache struct {
	log       *logger.Logger
	rdb       *goredis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisPolicyCache(log *logger.Logger) (PolicyCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_POLICY_PREFIX"))
	if prefix == "" {
		prefix = "room_policy"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisPolicyCache{
		log:       log.With("service", "RedisPolicyCache"),
		rdb:       rdb,
		keyPrefix: prefix,
		ttl:       5 * time.Minute,
	}, nil
}

func (pc *redisPolicyCache) key(roomName string) string {
	return pc.keyPrefix + ":" + roomName
}

// isCacheMiss matches the go-redis miss sentinel even when it arrives wrapped.
func isCacheMiss(err error) bool {
	return errors.Is(err, goredis.Nil)
}

func (pc *redisPolicyCache) Get(ctx context.Context, roomName string) (*types.RoomPolicy, bool) {
	raw, err := pc.rdb.Get(ctx, pc.key(roomName)).Bytes()
	if err != nil {
		if !isCacheMiss(err) {
			pc.log.Warn("Cache read failed, falling back to database", "room_name", roomName, "error", err)
		}
		return nil, false
	}
	var policy types.RoomPolicy
	if err := json.Unmarshal(raw, &policy); err != nil {
		pc.log.Warn("Cache entry undecodable, dropping it", "room_name", roomName, "error", err)
		pc.Invalidate(ctx, roomName)
		return nil, false
	}
	return &policy, true
}

func (pc *redisPolicyCache) Set(ctx context.Context, roomName string, policy *types.RoomPolicy) {
	raw, err := json.Marshal(policy)
	if err != nil {
		pc.log.Warn("Could not encode policy for cache", "room_name", roomName, "error", err)
		return
	}
	if err := pc.rdb.Set(ctx, pc.key(roomName), raw, pc.ttl).Err(); err != nil {
		pc.log.Warn("Cache write failed", "room_name", roomName, "error", err)
	}
}

func (pc *redisPolicyCache) Invalidate(ctx context.Context, roomName string) {
	if err := pc.rdb.Del(ctx, pc.key(roomName)).Err(); err != nil {
		pc.log.Warn("Cache invalidation failed", "room_name", roomName, "error", err)
	}
}
