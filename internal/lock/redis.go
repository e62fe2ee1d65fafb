package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/import-worker/internal/domain"
)

// DefaultTTL — время жизни lease без продления.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "import_worker:lock"

// releaseScript удаляет ключ, только если он всё ещё наш.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript продлевает ключ, только если он всё ещё наш.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker реализует advisory lock поверх Redis.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker создаёт RedisLocker. ttl <= 0 даёт DefaultTTL.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

// NewClient разбирает redis:// URL и проверяет соединение.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Key возвращает ключ lock для пары (job, phase).
func Key(id domain.JobID, phase domain.Phase) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, id, phase)
}

// TryLock пытается захватить lock без ожидания.
//
// acquired=false без ошибки означает, что lock держит другой worker.
// release идемпотентен и останавливает продление lease.
func (l *RedisLocker) TryLock(ctx context.Context, id domain.JobID, phase domain.Phase) (func(), bool, error) {
	key := Key(id, phase)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	refreshCtx, stopRefresh := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.refresh(refreshCtx, key, token)
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			stopRefresh()
			<-done

			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("failed to release job lock", "key", key, "error", err)
			}
		})
	}

	return release, true, nil
}

// refresh продлевает lease каждые ttl/3, пока ctx не отменён.
func (l *RedisLocker) refresh(ctx context.Context, key, token string) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := refreshScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				l.logger.Warn("failed to refresh job lock", "key", key, "error", err)
			case res == 0:
				l.logger.Warn("job lock lost", "key", key)
				return
			}
		}
	}
}
