package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript borra la clave solo si todavía contiene nuestro token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock candado compartido entre instancias: SET NX PX con un token aleatorio y liberación
// atómica por script.
type RedisLock struct {
	client         redis.UniversalClient
	releaseTimeout time.Duration
}

// RedisConfig conexión a Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient abre el cliente y comprueba la conexión.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: no se pudo conectar a %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisLock usa un cliente ya abierto.
func NewRedisLock(client redis.UniversalClient) *RedisLock {
	return &RedisLock{client: client, releaseTimeout: 3 * time.Second}
}

// Acquire toma la clave sin esperar; si está tomada devuelve ErrHeld.
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: tomar candado %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return func() {
		// Contexto propio: el del intento puede estar ya cancelado.
		rctx, cancel := context.WithTimeout(context.Background(), l.releaseTimeout)
		defer cancel()
		_ = releaseScript.Run(rctx, l.client, []string{key}, token).Err()
	}, nil
}
