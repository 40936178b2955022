package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 商品一覧キャッシュのキーのprefix。
const ListingPrefix = "products:list:"

// 無効化のSCANで消えないようListingPrefixの外に置く
const generationKey = "products:listgen"

type RedisListingCache struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewRedisListingCache(client *redis.Client) *RedisListingCache {
	return &RedisListingCache{client: client}
}

// 最初の無効化までは0。
func (c *RedisListingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// キャッシュなしはok=false, err=nil。
func (c *RedisListingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, ListingPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisListingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, ListingPrefix+key, value, ttl).Err()
}

// generationを上げてから一覧キャッシュをすべて消す。
// KEYSだと大きいkeyspaceでサーバーを止めるのでSCANを使う。
func (c *RedisListingCache) InvalidateListings(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return err
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, ListingPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
