package memory

import (
	"sync"

	"github.com/clairexuu/SWAG-Golf/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds conversation contexts in process memory, keyed by
// (sessionId, styleId). Contexts never expire on their own: a session ends
// only when its feedback is summarized and Reset removes it.
type SessionRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[entity.SessionKey]*sync.Mutex
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
		locks: make(map[entity.SessionKey]*sync.Mutex),
	}
}

// Lock acquires the per-key mutex, creating it on first use. The returned
// function releases it. All turn appends and resets for a key must run
// under its lock so turn numbers stay sequential.
func (r *SessionRepository) Lock(key entity.SessionKey) func() {
	r.mu.Lock()
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// GetOrCreate returns the context for key, creating an empty one if the key
// was never seen (or was reset).
func (r *SessionRepository) GetOrCreate(key entity.SessionKey) *entity.ConversationContext {
	if x, found := r.cache.Get(key.String()); found {
		return x.(*entity.ConversationContext)
	}
	ctx := entity.NewConversationContext(key.SessionId, key.StyleId)
	r.cache.Set(key.String(), ctx, cache.NoExpiration)
	return ctx
}

// Get returns the context for key if one exists.
func (r *SessionRepository) Get(key entity.SessionKey) (*entity.ConversationContext, bool) {
	if x, found := r.cache.Get(key.String()); found {
		return x.(*entity.ConversationContext), true
	}
	return nil, false
}

// Reset discards the context for key. The next GetOrCreate starts a fresh
// conversation with turn numbers from 1.
func (r *SessionRepository) Reset(key entity.SessionKey) {
	r.cache.Delete(key.String())
}
