package services

import "sync"

// PostLocks serialises work per post id. Entries are reference counted and
// dropped once no caller holds or waits for them.
type PostLocks struct {
	mu    sync.Mutex
	locks map[string]*postLock
}

type postLock struct {
	mu   sync.Mutex
	refs int
}

func NewPostLocks() *PostLocks {
	return &PostLocks{locks: make(map[string]*postLock)}
}

// Lock blocks until postID is free and returns the matching unlock func.
func (l *PostLocks) Lock(postID string) func() {
	l.mu.Lock()

	entry, ok := l.locks[postID]
	if !ok {
		entry = &postLock{}
		l.locks[postID] = entry
	}

	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()

		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, postID)
		}
	}
}

// held reports how many post ids currently have a lock entry.
func (l *PostLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
