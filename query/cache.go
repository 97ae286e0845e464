package query

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-verify/core"
)

const userStatusCacheKeyPrefix = "go-verify::user_status::v1"

// CachedUserStatusReader serves repeated status lookups from a cache. Only
// successful lookups are cached.
type CachedUserStatusReader struct {
	base  UserStatusReader
	cache repositorycache.CacheService
}

func NewCachedUserStatusReader(
	base UserStatusReader,
	cacheService repositorycache.CacheService,
) (*CachedUserStatusReader, error) {
	if base == nil {
		return nil, fmt.Errorf("query: base user status reader is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("query: user status cache service is required")
	}
	return &CachedUserStatusReader{base: base, cache: cacheService}, nil
}

// UserStatusCacheKey returns go-verify::user_status::v1::<country>::<number>
// with each segment URL-path escaped.
func UserStatusCacheKey(req core.UserRequest) (string, error) {
	number := strings.TrimSpace(req.PhoneNumber)
	if number == "" {
		return "", core.VerifyErrorNumberRequired
	}
	country := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	return strings.Join([]string{
		userStatusCacheKeyPrefix,
		url.PathEscape(country),
		url.PathEscape(number),
	}, "::"), nil
}

func (r *CachedUserStatusReader) UserStatus(ctx context.Context, req core.UserRequest) (core.UserStatus, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return core.UserStatusUnknown, queryDependencyError("query: cached user status reader is not configured")
	}
	cacheKey, err := UserStatusCacheKey(req)
	if err != nil {
		return core.UserStatusUnknown, err
	}
	status, err := repositorycache.GetOrFetch(ctx, r.cache, cacheKey, func(ctx context.Context) (core.UserStatus, error) {
		return r.base.UserStatus(ctx, req)
	})
	if err != nil {
		return core.UserStatusUnknown, err
	}
	return status, nil
}

// Invalidate drops the cached status for req, typically after a logout or a
// completed verification.
func (r *CachedUserStatusReader) Invalidate(ctx context.Context, req core.UserRequest) error {
	if r == nil || r.cache == nil {
		return nil
	}
	cacheKey, err := UserStatusCacheKey(req)
	if err != nil {
		return err
	}
	return r.cache.Delete(ctx, cacheKey)
}

var (
	_ UserStatusReader = (*CachedUserStatusReader)(nil)
	_ UserStatusReader = VerifierStatusReader{}
)
