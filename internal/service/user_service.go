package service

import (
	"context"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/util"
	"digcomp_backend/pkg/logger"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
}

// LastUserStore remembers the last user created from a device.
type LastUserStore interface {
	Get(ctx context.Context, deviceID string) (string, bool, error)
	Set(ctx context.Context, deviceID, userID string) error
}

type MemoryLastUserStore struct {
	mu    sync.RWMutex
	users map[string]string
}

func NewMemoryLastUserStore() *MemoryLastUserStore {
	return &MemoryLastUserStore{users: make(map[string]string)}
}

func (m *MemoryLastUserStore) Get(_ context.Context, deviceID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.users[deviceID]
	return id, ok, nil
}

func (m *MemoryLastUserStore) Set(_ context.Context, deviceID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[deviceID] = userID
	return nil
}

const lastUserKeyPrefix = "digcomp:last_user:"

// RedisLastUserStore keeps the mapping for TTL after the last write.
type RedisLastUserStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func (r *RedisLastUserStore) Get(ctx context.Context, deviceID string) (string, bool, error) {
	val, err := r.Redis.Get(ctx, lastUserKeyPrefix+deviceID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisLastUserStore) Set(ctx context.Context, deviceID, userID string) error {
	return r.Redis.Set(ctx, lastUserKeyPrefix+deviceID, userID, r.TTL).Err()
}

type UserService struct {
	Repo     UserStore
	LastUser LastUserStore
}

func NewUserService(repo UserStore, lastUser LastUserStore) *UserService {
	if lastUser == nil {
		lastUser = NewMemoryLastUserStore()
	}
	return &UserService{Repo: repo, LastUser: lastUser}
}

// Create stores user, assigning an id when absent, and remembers it for
// deviceID when one is given.
func (s *UserService) Create(ctx context.Context, user *model.User, deviceID string) error {
	user.Name = strings.TrimSpace(user.Name)
	user.Occupation = strings.TrimSpace(user.Occupation)
	if user.ID == "" {
		user.ID = model.GenerateUUID()
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return err
	}

	if deviceID != "" {
		if err := s.LastUser.Set(ctx, deviceID, user.ID); err != nil {
			logger.Log.Warn("Failed to remember last user",
				zap.String("deviceId", deviceID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.Repo.FindAll(ctx)
	if users == nil && err == nil {
		users = []model.User{}
	}
	return users, err
}

// Last returns the last user created from deviceID, or ErrUserNotFound.
func (s *UserService) Last(ctx context.Context, deviceID string) (*model.User, error) {
	id, ok, err := s.LastUser.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return s.Repo.FindByID(ctx, id)
}
