package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const allowScript = `
local key = KEYS[1]
local seq_key = key .. ':seq'
local window_ms = tonumber(ARGV[1])
local max_requests = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now_ms - window_ms)
local current = redis.call('ZCARD', key)
if current >= max_requests then
  return 0
end
local seq = redis.call('INCR', seq_key)
redis.call('PEXPIRE', seq_key, window_ms)
redis.call('ZADD', key, now_ms, tostring(now_ms) .. ':' .. tostring(seq))
redis.call('PEXPIRE', key, window_ms)
return 1
`

var allowLua = redis.NewScript(allowScript)

// Redis is a sliding window limiter sharing state across processes via a
// sorted set per key. Members are "now_ms:seq" with a per-key sequence
// counter breaking ties inside one millisecond, so concurrent admissions
// never collapse into a single member.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedis creates a distributed limiter on client with the given quota.
func NewRedis(client *redis.Client, cfg Config) *Redis {
	return &Redis{
		client: client,
		max:    cfg.Requests,
		window: cfg.Window,
		prefix: "rate",
		now:    time.Now,
	}
}

// Allow runs the trim/count/insert sequence as one Lua script. Servers
// without scripting support are served by a non-atomic fallback that can
// over-admit under a concurrent burst; it is degraded, not incorrect.
// Backend failures are reported as ErrBackendUnavailable.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + ":" + key
	nowMS := l.now().UnixMilli()

	res, err := allowLua.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds(), l.max, nowMS).Int64()
	if err == nil {
		return res == 1, nil
	}
	if !scriptUnsupported(err) {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return l.allowFallback(ctx, redisKey, nowMS)
}

func (l *Redis) allowFallback(ctx context.Context, redisKey string, nowMS int64) (bool, error) {
	windowMS := l.window.Milliseconds()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(nowMS-windowMS, 10))
	card := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if card.Val() >= int64(l.max) {
		return false, nil
	}

	seq, err := l.client.Incr(ctx, redisKey+":seq").Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := l.client.PExpire(ctx, redisKey+":seq", l.window).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	member := strconv.FormatInt(nowMS, 10) + ":" + strconv.FormatInt(seq, 10)
	if err := l.client.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowMS), Member: member}).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := l.client.PExpire(ctx, redisKey, l.window).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return true, nil
}

func scriptUnsupported(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unknown command")
}
