// Package distlock guards a sending against concurrent dispatch across processes.
package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a single lock instance. Instances are not safe for concurrent use.
type DistLock interface {
	// Acquire tries to acquire the lock without blocking. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// Renewer is implemented by locks that expire on their own and must be kept
// alive while a long run holds them
type Renewer interface {
	KeepAlive(ctx context.Context, onLost func()) (stop func())
}

// Locker hands out locks by key
type Locker interface {
	NewLock(key string) DistLock
}

// SendingKey returns the lock key of a sending
func SendingKey(sendingID uint) string {
	return fmt.Sprintf("dispatch:sending:%d", sendingID)
}

// NewLocker picks the best available backend. Redis is preferred; a postgres
// connection falls back to advisory locks; with neither, locking is disabled.
func NewLocker(redisClient *redis.Client, db *sql.DB, ttl time.Duration) Locker {
	if redisClient != nil {
		return &RedisLocker{client: redisClient, ttl: ttl}
	}
	if db != nil {
		return &PGAdvisoryLocker{db: db}
	}
	return NoopLocker{}
}

// RedisLocker creates RedisLock instances sharing one client
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLock implements Locker
func (l *RedisLocker) NewLock(key string) DistLock {
	return NewRedisLock(l.client, key, l.ttl)
}

// =============================================================================
// PostgreSQL Advisory Lock (fallback when Redis is unavailable)
// =============================================================================
// pg_try_advisory_lock is session-scoped, so the lock is released if the
// connection drops.

// PGAdvisoryLocker creates PGAdvisoryLock instances
type PGAdvisoryLocker struct {
	db *sql.DB
}

// NewLock implements Locker
func (l *PGAdvisoryLocker) NewLock(key string) DistLock {
	return NewPGAdvisoryLock(l.db, key)
}

// PGAdvisoryLock implements DistLock using PostgreSQL advisory locks.
// It pins one pooled connection between Acquire and Release.
type PGAdvisoryLock struct {
	db     *sql.DB
	conn   *sql.Conn
	lockID int64
}

// NewPGAdvisoryLock creates a PG advisory lock with a lock ID derived from key
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire tries to acquire the advisory lock. Returns true if successful.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get connection for advisory lock: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release releases the advisory lock and returns its connection to the pool
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
	}()

	if _, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID); err != nil {
		return fmt.Errorf("failed to release advisory lock: %w", err)
	}
	return nil
}

// NoopLocker hands out locks that always succeed
type NoopLocker struct{}

// NewLock implements Locker
func (NoopLocker) NewLock(string) DistLock {
	return noopLock{}
}

type noopLock struct{}

func (noopLock) Acquire(context.Context) (bool, error) { return true, nil }

func (noopLock) Release(context.Context) error { return nil }
