package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultRequestsPerMinute = 60
	cleanupInterval          = 5 * time.Minute
)

// Limiter - скользящее окно на клиента. Ключ - адрес клиента (или любой другой идентификатор).
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

type Config struct {
	RequestsPerMinute int
}

// New не запускает фоновую очистку: её крутит Run, пока жив контекст
func New(cfg Config) *Limiter {
	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = DefaultRequestsPerMinute
	}

	return &Limiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   time.Minute,
		now:      time.Now,
	}
}

func (l *Limiter) Limit() int { return l.limit }

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fresh := l.freshLocked(key, now)

	if len(fresh) >= l.limit {
		return false
	}

	l.requests[key] = append(fresh, now)
	return true
}

func (l *Limiter) RemainingRequests(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rem := l.limit - len(l.freshLocked(key, l.now())); rem > 0 {
		return rem
	}
	return 0
}

// ResetTime - когда освободится ближайший слот
func (l *Limiter) ResetTime(key string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ts := l.freshLocked(key, now)
	if len(ts) == 0 {
		return now
	}
	// timestamps добавляются по возрастанию, первый - самый старый
	return ts[0].Add(l.window)
}

// Run чистит устаревшие ключи, пока ctx не отменён
func (l *Limiter) Run(ctx context.Context) {
	tick := time.NewTicker(cleanupInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			l.cleanup()
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key := range l.requests {
		l.freshLocked(key, now)
	}
}

// freshLocked выкидывает устаревшие отметки и сохраняет результат обратно в карту:
// сжатие идёт поверх того же массива, старый срез после него читать нельзя
func (l *Limiter) freshLocked(key string, now time.Time) []time.Time {
	old, ok := l.requests[key]
	if !ok {
		return nil
	}

	cutoff := now.Add(-l.window)
	fresh := old[:0]
	for _, t := range old {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) == 0 {
		delete(l.requests, key)
		return nil
	}
	l.requests[key] = fresh
	return fresh
}

// size - число отслеживаемых клиентов, нужно тестам
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}
