package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var _ Cacher = &Memory{}

// Memory is a process local Cacher, used when no database is configured.
// A zero expiresAfter keeps entries forever.
type Memory struct {
	expiresAfter time.Duration
	log          zerolog.Logger
	now          func() time.Time

	mu      sync.RWMutex
	entries map[string]Result

	counters
}

func (m *Memory) Get(key string, into any) bool {
	atomic.AddInt32(m.requests, 1)

	m.mu.RLock()
	res, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.log.Debug().Msgf("cache miss on: %s", key)
		return false
	}

	if m.expiresAfter > 0 && m.now().Sub(res.LastCached) > m.expiresAfter {
		m.log.Debug().Msgf("cache expiry on: %s", key)
		return false
	}

	err := json.Unmarshal(res.CachedResponse, into)
	if err != nil {
		m.log.Info().Err(err).Msgf("deserializing cached value: %s", key)
		return false
	}

	atomic.AddInt32(m.hits, 1)
	return true
}

func (m *Memory) Set(key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		m.log.Info().Err(err).Msgf("serializing value for cache: %s", key)
		return
	}

	now := m.now()

	m.mu.Lock()
	m.entries[key] = Result{
		CachedResponse: data,
		LastCached:     now,
		LastTried:      now,
	}
	m.mu.Unlock()
}

func (m *Memory) Stats() Statistics {
	return m.stats()
}

func NewMemory(expiresAfter time.Duration, log zerolog.Logger) *Memory {
	return &Memory{
		expiresAfter: expiresAfter,
		log:          log,
		now:          time.Now,
		entries:      map[string]Result{},
		counters:     newCounters(),
	}
}
