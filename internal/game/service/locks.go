package service

import "sync"

// sessionLock is one session's serialization point.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lockPool hands out per-session mutexes so commands and timer dispatches
// for the same session serialize while different sessions run concurrently.
// Entries are reference counted and dropped when idle.
type lockPool struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

func newLockPool() *lockPool {
	return &lockPool{locks: make(map[string]*sessionLock)}
}

// acquire blocks until the session's lock is held and returns the release
// function.
func (p *lockPool) acquire(sessionID string) func() {
	p.mu.Lock()
	l, ok := p.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		p.locks[sessionID] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, sessionID)
		}
		p.mu.Unlock()
	}
}
