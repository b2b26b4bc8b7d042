package cache

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"go.uber.org/zap"
)

const opTimeout = 2 * time.Second

// RedisCache is the production PageCache. Expiry is delegated to redis
// key TTLs, which also makes the cache shared across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

// NewRedisCache connects to redis and returns a PageCache over it. The
// returned error is the ping failure, letting callers fall back to the
// in-memory implementation.
func NewRedisCache(host string, port int, password string, db int, ttl time.Duration, log *zap.SugaredLogger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(host, strconv.Itoa(port)),
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client, ttl: ttl, log: log}, nil
}

func (r *RedisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	b, err := r.client.Get(ctx, "page:"+key).Bytes()
	if err != nil {
		if r.log != nil && err != redis.Nil {
			r.log.Debugf("page cache get failed key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(key string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := r.client.Set(ctx, "page:"+key, body, r.ttl).Err(); err != nil {
		if r.log != nil {
			r.log.Warnf("page cache set failed key=%s err=%v", key, err)
		}
	}
}
