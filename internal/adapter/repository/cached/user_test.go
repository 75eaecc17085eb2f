package cached

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-management-api/internal/adapter/cache"
	domain "user-management-api/internal/domain/user"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func setupCachedRepo(t *testing.T) (*CachedUserRepository, *MockRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zaptest.NewLogger(t)
	dbRepo := new(MockRepository)
	listCache := cache.NewRedisUserCache(client, time.Minute, log)
	return NewCachedUserRepository(dbRepo, listCache, log), dbRepo, mr
}

// tableRepo keeps users in memory. When gate is set, the next GetAll takes its
// snapshot, signals entered and waits for gate to close before returning.
type tableRepo struct {
	mu      sync.Mutex
	users   []domain.User
	gate    chan struct{}
	entered chan struct{}
}

func (f *tableRepo) GetAll(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	snapshot := append([]domain.User{}, f.users...)
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()

	if gate != nil {
		f.entered <- struct{}{}
		<-gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (f *tableRepo) Create(_ context.Context, u *domain.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = int64(len(f.users) + 1)
	f.users = append(f.users, *u)
	return 1, nil
}

func (f *tableRepo) Update(context.Context, *domain.User) (int64, error) { return 0, nil }

func (f *tableRepo) Delete(context.Context, int64) (int64, error) { return 0, nil }

func (f *tableRepo) blockNextRead() (gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 1)
	return f.gate
}

func setupTableRepo(t *testing.T) (*CachedUserRepository, *tableRepo) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zaptest.NewLogger(t)
	table := &tableRepo{}
	return NewCachedUserRepository(table, cache.NewRedisUserCache(client, time.Minute, log), log), table
}

var stored = []domain.User{{ID: 1, Name: "Ana", Email: "ana@x.com"}}

func TestGetAll_MissThenHit(t *testing.T) {
	repo, dbRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("GetAll", mock.Anything).Return(stored, nil).Once()

	first, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, first)

	second, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, second)

	dbRepo.AssertNumberOfCalls(t, "GetAll", 1)
}

func TestGetAll_DatabaseErrorNotCached(t *testing.T) {
	repo, dbRepo, mr := setupCachedRepo(t)
	ctx := context.Background()

	dbErr := errors.New("connection refused")
	dbRepo.On("GetAll", mock.Anything).Return(nil, dbErr).Once()

	_, err := repo.GetAll(ctx)
	assert.Same(t, dbErr, err)
	assert.False(t, mr.Exists(cache.UsersListKey))
}

func TestGetAll_CacheDownFallsBackToDatabase(t *testing.T) {
	repo, dbRepo, mr := setupCachedRepo(t)
	ctx := context.Background()
	mr.Close()

	dbRepo.On("GetAll", mock.Anything).Return(stored, nil)

	users, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, users)
}

func TestGetAll_ConcurrentMisses(t *testing.T) {
	repo, dbRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("GetAll", mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(50 * time.Millisecond) }).
		Return(stored, nil)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			users, err := repo.GetAll(ctx)
			assert.NoError(t, err)
			assert.Equal(t, stored, users)
		}()
	}
	wg.Wait()

	assert.Less(t, len(dbRepo.Calls), 10)
}

func TestWrites_InvalidateList(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(m *MockRepository)
		write func(r *CachedUserRepository) error
	}{
		{
			name:  "create",
			setup: func(m *MockRepository) { m.On("Create", ctx, mock.Anything).Return(int64(1), nil) },
			write: func(r *CachedUserRepository) error {
				_, err := r.Create(ctx, &domain.User{Name: "Luis", Email: "luis@x.com"})
				return err
			},
		},
		{
			name:  "update",
			setup: func(m *MockRepository) { m.On("Update", ctx, mock.Anything).Return(int64(1), nil) },
			write: func(r *CachedUserRepository) error {
				_, err := r.Update(ctx, &domain.User{ID: 1, Name: "Ana María", Email: "ana@x.com"})
				return err
			},
		},
		{
			name:  "delete",
			setup: func(m *MockRepository) { m.On("Delete", ctx, int64(1)).Return(int64(1), nil) },
			write: func(r *CachedUserRepository) error {
				_, err := r.Delete(ctx, 1)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, dbRepo, mr := setupCachedRepo(t)
			dbRepo.On("GetAll", mock.Anything).Return(stored, nil)
			tt.setup(dbRepo)

			_, err := repo.GetAll(ctx)
			require.NoError(t, err)
			require.True(t, mr.Exists(cache.UsersListKey))

			require.NoError(t, tt.write(repo))
			assert.False(t, mr.Exists(cache.UsersListKey))
		})
	}
}

func TestWrites_NoRowsKeepsList(t *testing.T) {
	repo, dbRepo, mr := setupCachedRepo(t)
	ctx := context.Background()

	dbRepo.On("GetAll", mock.Anything).Return(stored, nil)
	dbRepo.On("Delete", ctx, int64(999)).Return(int64(0), nil)

	_, err := repo.GetAll(ctx)
	require.NoError(t, err)

	rows, err := repo.Delete(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.True(t, mr.Exists(cache.UsersListKey))
}

func TestWrites_ErrorPassesThrough(t *testing.T) {
	repo, dbRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	dbErr := errors.New("Column 'name' cannot be null")
	dbRepo.On("Update", ctx, mock.Anything).Return(int64(0), dbErr)

	_, err := repo.Update(ctx, &domain.User{ID: 1})
	assert.Same(t, dbErr, err)
}

func TestGetAll_ReadAfterCreateSeesNewUser(t *testing.T) {
	repo, table := setupTableRepo(t)
	ctx := context.Background()

	gate := table.blockNextRead()
	slow := make(chan []domain.User, 1)
	go func() {
		users, err := repo.GetAll(ctx)
		assert.NoError(t, err)
		slow <- users
	}()
	<-table.entered

	_, err := repo.Create(ctx, &domain.User{Name: "Ana", Email: "ana@x.com"})
	require.NoError(t, err)

	users, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	// the read that started before the insert finishes last
	close(gate)
	assert.Empty(t, <-slow)

	users, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGetAll_CanceledCallerDoesNotFailOthers(t *testing.T) {
	repo, table := setupTableRepo(t)
	_, err := table.Create(context.Background(), &domain.User{Name: "Ana", Email: "ana@x.com"})
	require.NoError(t, err)

	gate := table.blockNextRead()

	firstCtx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := repo.GetAll(firstCtx)
		first <- err
	}()
	<-table.entered

	type result struct {
		users []domain.User
		err   error
	}
	second := make(chan result, 1)
	go func() {
		users, err := repo.GetAll(context.Background())
		second <- result{users, err}
	}()

	// give the second caller time to join the in-flight read
	time.Sleep(50 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(gate)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.users, 1)
}
