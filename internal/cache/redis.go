package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/model"
)

const (
	packagesKey = "promotion_packages:all"
	packagesTTL = 5 * time.Minute
)

func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return rdb, nil
}

// PackageCache keeps the promotion package list in Redis. Every failure is
// logged and treated as a miss.
type PackageCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewPackageCache(rdb redis.Cmdable) *PackageCache {
	return &PackageCache{rdb: rdb, ttl: packagesTTL}
}

func (c *PackageCache) GetPackages(ctx context.Context) ([]model.Package, bool) {
	raw, err := c.rdb.Get(ctx, packagesKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zlog.Ctx(ctx).Warn().Err(err).Msg("package cache read failed")
		}
		return nil, false
	}
	var pkgs []model.Package
	if err := json.Unmarshal(raw, &pkgs); err != nil {
		zlog.Ctx(ctx).Warn().Err(err).Msg("package cache entry unreadable")
		return nil, false
	}
	return pkgs, true
}

func (c *PackageCache) SetPackages(ctx context.Context, pkgs []model.Package) {
	b, err := json.Marshal(pkgs)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, packagesKey, b, c.ttl).Err(); err != nil {
		zlog.Ctx(ctx).Warn().Err(err).Msg("package cache write failed")
	}
}

func (c *PackageCache) InvalidatePackages(ctx context.Context) {
	if err := c.rdb.Del(ctx, packagesKey).Err(); err != nil {
		zlog.Ctx(ctx).Warn().Err(err).Msg("package cache invalidation failed")
	}
}
