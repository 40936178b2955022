package repository

import (
	"context"
	"time"
)

// 商品一覧のキャッシュ。読み込み側はDBを引く前にgenerationを取り、
// キーに含める。これで無効化より前に作られたページが
// 無効化の後に返されることはない。
type ListingCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidateListings(ctx context.Context) error
}
