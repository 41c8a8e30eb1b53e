package credits

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
)

// Redis key layout.
const (
	prefsKeyPrefix = "ogbanana:prefs:" // hash: plan, credits, limit, updated_at
	usersKey       = "ogbanana:users"  // set of user ids
)

// decrementScript removes one credit if the balance is positive and returns
// the resulting balance.
var decrementScript = redis.NewScript(`
local c = tonumber(redis.call('HGET', KEYS[1], 'credits') or '0') or 0
if c > 0 then
  c = c - 1
  redis.call('HSET', KEYS[1], 'credits', c, 'updated_at', ARGV[1])
end
return c
`)

// NewRedisClient connects to a redis:// URL and pings it.
func NewRedisClient(ctx context.Context, redisURL string, logger logging.Logger) (*redis.Client, error) {
	parsed, err := url.Parse(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	addr := parsed.Host
	if addr == "" {
		addr = "localhost:6379"
	}
	password := ""
	if parsed.User != nil {
		password, _ = parsed.User.Password()
	}
	db := 0
	if len(parsed.Path) > 1 {
		if n, err := strconv.Atoi(parsed.Path[1:]); err == nil {
			db = n
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if logger != nil {
		logger.Info("connected to Redis", logging.Field{Key: "addr", Value: addr}, logging.Field{Key: "db", Value: db})
	}
	return client, nil
}

// RedisLedger keeps prefs in one hash per user.
type RedisLedger struct {
	client redis.UniversalClient
}

func NewRedisLedger(client redis.UniversalClient) *RedisLedger {
	return &RedisLedger{client: client}
}

func prefsKey(userID string) string { return prefsKeyPrefix + userID }

func (l *RedisLedger) Credits(ctx context.Context, userID string) (int, error) {
	v, err := l.client.HGet(ctx, prefsKey(userID), "credits").Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis credits: %w", err)
	}
	if v < 0 {
		return 0, nil
	}
	return v, nil
}

func (l *RedisLedger) Decrement(ctx context.Context, userID string) (int, error) {
	n, err := decrementScript.Run(ctx, l.client, []string{prefsKey(userID)}, time.Now().UnixMilli()).Int()
	if err != nil {
		return 0, fmt.Errorf("redis decrement: %w", err)
	}
	return n, nil
}

func (l *RedisLedger) Prefs(ctx context.Context, userID string) (model.Prefs, error) {
	m, err := l.client.HGetAll(ctx, prefsKey(userID)).Result()
	if err != nil {
		return model.Prefs{}, fmt.Errorf("redis prefs: %w", err)
	}
	return prefsFromHash(m), nil
}

// MergePrefs uses HSETNX so fields already present are kept.
func (l *RedisLedger) MergePrefs(ctx context.Context, userID string, defaults model.Prefs) error {
	key := prefsKey(userID)
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if defaults.Plan != "" {
			p.HSetNX(ctx, key, "plan", string(defaults.Plan))
		}
		p.HSetNX(ctx, key, "credits", defaults.Credits)
		if defaults.Limit != 0 {
			p.HSetNX(ctx, key, "limit", defaults.Limit)
		}
		p.HSet(ctx, key, "updated_at", time.Now().UnixMilli())
		p.SAdd(ctx, usersKey, userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis merge prefs: %w", err)
	}
	return nil
}

func (l *RedisLedger) SetCredits(ctx context.Context, userID string, credits, limit int) error {
	key := prefsKey(userID)
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "credits", credits, "limit", limit, "updated_at", time.Now().UnixMilli())
		p.SAdd(ctx, usersKey, userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set credits: %w", err)
	}
	return nil
}

func (l *RedisLedger) Users(ctx context.Context) ([]model.User, error) {
	ids, err := l.client.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis users: %w", err)
	}
	sort.Strings(ids)

	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		m, err := l.client.HGetAll(ctx, prefsKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis prefs %s: %w", id, err)
		}
		u := model.User{ID: id, Prefs: prefsFromHash(m)}
		if ms, err := strconv.ParseInt(m["updated_at"], 10, 64); err == nil {
			u.UpdatedAt = time.UnixMilli(ms).UTC()
		}
		users = append(users, u)
	}
	return users, nil
}

func prefsFromHash(m map[string]string) model.Prefs {
	p := model.Prefs{Plan: model.Plan(m["plan"])}
	p.Credits, _ = strconv.Atoi(m["credits"])
	p.Limit, _ = strconv.Atoi(m["limit"])
	return p
}
