package cached

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-management-api/internal/adapter/cache"
	domain "user-management-api/internal/domain/user"
	"user-management-api/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with a cached user list.
// It wraps a persistent repository (DB) and a list cache.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserListCache
	log    *zap.Logger
	group  singleflight.Group

	loadTimeout time.Duration // bound for a shared database read
}

const defaultLoadTimeout = 10 * time.Second

var _ user.Repository = (*CachedUserRepository)(nil)

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserListCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,

		loadTimeout: defaultLoadTimeout,
	}
}

// GetAll returns the user list using the cache-aside pattern.
// Cache failures fall back to the database.
func (r *CachedUserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	if users, err := r.cache.Get(ctx); err != nil {
		r.log.Warn("cache get error, falling back to database", zap.Error(err))
	} else if users != nil {
		return users, nil
	}

	gen, genErr := r.cache.Generation(ctx)
	if genErr != nil {
		r.log.Warn("cache generation unavailable, result will not be cached", zap.Error(genErr))
	}

	// Concurrent misses within one generation share a single database read.
	// A write bumps the generation, so later misses start a fresh read.
	ch := r.group.DoChan(fmt.Sprintf("%s#%d", cache.UsersListKey, gen), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()

		users, err := r.dbRepo.GetAll(loadCtx)
		if err != nil {
			return nil, err
		}

		if genErr == nil {
			if _, err := r.cache.Set(loadCtx, gen, users); err != nil {
				r.log.Warn("failed to cache users", zap.Error(err))
			}
		}
		return users, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.User), nil
	}
}

// Create inserts through the DB repository and invalidates the list.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	rows, err := r.dbRepo.Create(ctx, u)
	if err != nil {
		return 0, err
	}

	r.invalidate(ctx, rows)
	return rows, nil
}

// Update updates the user in DB and invalidates the list.
func (r *CachedUserRepository) Update(ctx context.Context, u *domain.User) (int64, error) {
	rows, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return 0, err
	}

	r.invalidate(ctx, rows)
	return rows, nil
}

// Delete deletes the user from DB and invalidates the list.
func (r *CachedUserRepository) Delete(ctx context.Context, id int64) (int64, error) {
	rows, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}

	r.invalidate(ctx, rows)
	return rows, nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, rows int64) {
	if rows == 0 {
		return
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		r.log.Warn("failed to invalidate cache after write", zap.Error(err))
	}
}
