package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLock candado por clave dentro de un único proceso. Las entradas expiran tras el TTL
// para que un release perdido no bloquee la factura para siempre.
type MemoryLock struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	seq     uint64
	now     func() time.Time
}

type memoryEntry struct {
	token     uint64
	expiresAt time.Time
}

// NewMemoryLock crea un candado en memoria.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{entries: make(map[string]memoryEntry), now: time.Now}
}

// Acquire toma la clave sin esperar; si está tomada devuelve ErrHeld.
func (l *MemoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok && now.Before(e.expiresAt) {
		return nil, ErrHeld
	}
	l.seq++
	token := l.seq
	l.entries[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// Solo libera si la entrada sigue siendo la nuestra (pudo expirar y ser retomada).
			if e, ok := l.entries[key]; ok && e.token == token {
				delete(l.entries, key)
			}
		})
	}, nil
}

// Len número de claves registradas (incluye expiradas aún no reemplazadas).
func (l *MemoryLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
