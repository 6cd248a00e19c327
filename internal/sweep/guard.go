package sweep

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Guard prevents overlapping runs of the same sweep. TryLock returns
// false while another run holds the name.
type Guard interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) bool
	Unlock(ctx context.Context, name string)
}

// RedisGuard serializes sweeps across replicas with SET NX EX. Redis
// being down fails open: the in-process guard in Runner still prevents
// local overlap.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(addr, password string, db int) *RedisGuard {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return &RedisGuard{client: client}
}

func (g *RedisGuard) TryLock(ctx context.Context, name string, ttl time.Duration) bool {
	ok, err := g.client.SetNX(ctx, "sweep:"+name, 1, ttl).Result()
	if err != nil {
		// fail-open; local overlap is still prevented by the runner
		return true
	}
	return ok
}

func (g *RedisGuard) Unlock(ctx context.Context, name string) {
	g.client.Del(ctx, "sweep:"+name)
}

// LocalGuard is the in-process fallback used when Redis is not
// configured.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]bool)}
}

func (g *LocalGuard) TryLock(_ context.Context, name string, _ time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[name] {
		return false
	}
	g.held[name] = true
	return true
}

func (g *LocalGuard) Unlock(_ context.Context, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, name)
}
