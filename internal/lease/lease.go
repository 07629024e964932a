// internal/lease/lease.go
package lease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLeaseHeld is returned when another holder owns the resource.
var ErrLeaseHeld = errors.New("lease already held by another process")

// Lease is an acquired exclusive claim on a resource.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out leases that expire after ttl if never released.
type Locker interface {
	Acquire(ctx context.Context, resource string, ttl time.Duration) (Lease, error)
}

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// RedisLocker coordinates leases across replicas with SET NX.
type RedisLocker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisLocker creates a Locker backed by Redis.
func NewRedisLocker(client *redis.Client, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
}

// Acquire claims resource for ttl.
func (l *RedisLocker) Acquire(ctx context.Context, resource string, ttl time.Duration) (Lease, error) {
	key := fmt.Sprintf("lease:%s", resource)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", resource, err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}

	l.logger.Debug("lease acquired", zap.String("resource", resource), zap.Duration("ttl", ttl))
	return &redisLease{client: l.client, key: key, token: token}, nil
}

// Release gives the lease back if it has not expired in the meantime.
func (l *redisLease) Release(ctx context.Context) error {
	result, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("lease %s expired before release", l.key)
	}
	return nil
}

// LocalLocker is an in-process Locker for single-replica deployments and tests.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localEntry
	now  func() time.Time
}

type localEntry struct {
	token     string
	expiresAt time.Time
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held: make(map[string]localEntry),
		now:  time.Now,
	}
}

type localLease struct {
	locker   *LocalLocker
	resource string
	token    string
}

// Acquire claims resource for ttl.
func (l *LocalLocker) Acquire(_ context.Context, resource string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.held[resource]; ok && now.Before(entry.expiresAt) {
		return nil, ErrLeaseHeld
	}

	token := uuid.NewString()
	l.held[resource] = localEntry{token: token, expiresAt: now.Add(ttl)}
	return &localLease{locker: l, resource: resource, token: token}, nil
}

// Release gives the lease back if it is still ours.
func (l *localLease) Release(_ context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()

	entry, ok := l.locker.held[l.resource]
	if !ok || entry.token != l.token {
		return fmt.Errorf("lease %s expired before release", l.resource)
	}
	delete(l.locker.held, l.resource)
	return nil
}
